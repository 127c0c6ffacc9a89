package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kayrahq/fetchkit/logger"
	"github.com/kayrahq/fetchkit/token"
)

// TokenProvider supplies the credential the token interceptors attach and
// refresh. *token.Source satisfies it.
type TokenProvider interface {
	// Current returns the current token pair, nil when none exists.
	Current(ctx context.Context) (*token.Token, error)
	// Refresh exchanges the current pair for a fresh one. Implementations
	// must deduplicate concurrent calls.
	Refresh(ctx context.Context) (*token.Token, error)
}

// attrTokenReplayed marks an exchange already replayed after a refresh, so
// a second 401 on the replay is surfaced instead of looping.
const attrTokenReplayed = "token.replayed"

// BearerTokenInterceptor attaches the current access token as a Bearer
// Authorization header. When the token is missing or expires within leeway
// it refreshes first, so most calls never see a 401 at all.
func BearerTokenInterceptor(provider TokenProvider, leeway time.Duration) Interceptor {
	return Interceptor{
		Name:  "bearer-token",
		Order: -100,
		Handler: func(ctx context.Context, ex *Exchange) error {
			t, err := provider.Current(ctx)
			if err != nil {
				return err
			}
			if t == nil || token.Expired(t.AccessToken, leeway) {
				if t, err = provider.Refresh(ctx); err != nil {
					return err
				}
			}
			if t != nil && t.AccessToken != "" {
				ex.Request.SetHeader("Authorization", "Bearer "+t.AccessToken)
			}
			return nil
		},
	}
}

// RefreshInterceptor reacts to 401 failures on the error chain: refresh the
// token through the provider's single-flight path and replay the exchange
// once. A refresh failure or a second 401 leaves the original failure in
// place; the interceptor itself never aborts the error chain.
func RefreshInterceptor(f *Fetcher, provider TokenProvider) Interceptor {
	return Interceptor{
		Name:  "token-refresh",
		Order: -100,
		Handler: func(ctx context.Context, ex *Exchange) error {
			var statusErr *Error
			if !errors.As(ex.Err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
				return nil
			}
			if _, replayed := ex.Get(attrTokenReplayed); replayed {
				return nil
			}
			ex.Set(attrTokenReplayed, true)

			if _, err := provider.Refresh(ctx); err != nil {
				f.log.Debug("token refresh after 401 failed", logger.Fields(
					logger.FieldExchangeID, ex.ID,
					logger.FieldError, err.Error(),
				))
				return nil
			}

			original := ex.Err
			if err := f.replay(ctx, ex); err != nil {
				ex.Err = err
				return nil
			}
			f.log.Debug("replayed after token refresh", logger.Fields(
				logger.FieldExchangeID, ex.ID,
				logger.FieldError, original.Error(),
			))
			ex.Err = nil
			return nil
		},
	}
}

// EnableTokenAuth registers BearerTokenInterceptor on the request chain and
// RefreshInterceptor on the error chain. The returned disposer removes both.
func (f *Fetcher) EnableTokenAuth(provider TokenProvider, leeway time.Duration) (func(), error) {
	ejectBearer, err := f.requestChain.Use(BearerTokenInterceptor(provider, leeway))
	if err != nil {
		return nil, err
	}
	ejectRefresh, err := f.errorChain.Use(RefreshInterceptor(f, provider))
	if err != nil {
		ejectBearer()
		return nil, err
	}
	return func() {
		ejectBearer()
		ejectRefresh()
	}, nil
}

// RequestLoggingInterceptor logs each outbound request at debug level.
func RequestLoggingInterceptor(log *logger.Logger) Interceptor {
	return Interceptor{
		Name:  "request-logging",
		Order: 1000, // after everything that still mutates the request
		Handler: func(_ context.Context, ex *Exchange) error {
			log.Debug("request", logger.Fields(
				logger.FieldExchangeID, ex.ID,
				logger.FieldMethod, ex.Request.Method,
				logger.FieldURL, ex.Request.Path,
			))
			return nil
		},
	}
}

// ResponseLoggingInterceptor logs each response at debug level.
func ResponseLoggingInterceptor(log *logger.Logger) Interceptor {
	return Interceptor{
		Name:  "response-logging",
		Order: -1000, // before interceptors that consume the response
		Handler: func(_ context.Context, ex *Exchange) error {
			if ex.Response == nil {
				return nil
			}
			log.Debug("response", logger.Fields(
				logger.FieldExchangeID, ex.ID,
				logger.FieldMethod, ex.Request.Method,
				logger.FieldStatus, ex.Response.StatusCode,
			))
			return nil
		},
	}
}
