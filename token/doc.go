// Package token manages the composite access/refresh credential pair used
// by the fetch client.
//
// Storage is the persistence contract; the package ships only an in-memory
// reference implementation — durable storage belongs to the embedding
// application. Coordinator deduplicates concurrent refreshes: any number of
// callers needing a fresh credential share exactly one upstream refresh
// call and observe its single outcome.
package token
