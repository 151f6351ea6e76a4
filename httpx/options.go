package httpx

import (
	"time"

	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// HTTPErrorHandler is a function that handles errors during request processing.
type HTTPErrorHandler func(error, Context)

type ServerOptions struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Middlewares  []MiddlewareFunc
	ErrorHandler HTTPErrorHandler
	CORS         *middleware.CORSConfig
	Renderer     Renderer
	Logger       *zap.Logger
	// AutoTLSHosts enables ACME certificates for the listed hosts.
	AutoTLSHosts    []string
	AutoTLSCacheDir string
}

type ServerOption func(*ServerOptions)

func defaultServerOptions() ServerOptions {
	return ServerOptions{
		Address:         ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		Middlewares:     []MiddlewareFunc{RecoverMiddleware(), LoggerMiddleware()},
		ErrorHandler:    defaultHTTPErrorHandler,
		AutoTLSCacheDir: ".autocert",
	}
}

func WithAddress(addr string) ServerOption {
	return func(o *ServerOptions) {
		if addr != "" {
			o.Address = addr
		}
	}
}

func WithTimeouts(read, write time.Duration) ServerOption {
	return func(o *ServerOptions) {
		if read > 0 {
			o.ReadTimeout = read
		}
		if write > 0 {
			o.WriteTimeout = write
		}
	}
}

func WithErrorHandler(handler HTTPErrorHandler) ServerOption {
	return func(o *ServerOptions) {
		if handler != nil {
			o.ErrorHandler = handler
		}
	}
}

// WithCORS enables CORS middleware using the provided configuration; if cfg is nil, the default config is used.
func WithCORS(cfg *middleware.CORSConfig) ServerOption {
	return func(o *ServerOptions) {
		if cfg == nil {
			def := middleware.DefaultCORSConfig
			o.CORS = &def
			return
		}
		o.CORS = cfg
	}
}

func WithRenderer(r Renderer) ServerOption {
	return func(o *ServerOptions) {
		o.Renderer = r
	}
}

// WithLogger replaces echo's request logger with one writing through logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(o *ServerOptions) {
		if logger == nil {
			return
		}
		o.Logger = logger
		o.Middlewares = []MiddlewareFunc{RecoverMiddleware(), ZapLoggerMiddleware(logger)}
	}
}

// WithAutoTLS serves HTTPS with certificates obtained for hosts; cacheDir
// stores them between restarts.
func WithAutoTLS(cacheDir string, hosts ...string) ServerOption {
	return func(o *ServerOptions) {
		if len(hosts) == 0 {
			return
		}
		o.AutoTLSHosts = append([]string{}, hosts...)
		if cacheDir != "" {
			o.AutoTLSCacheDir = cacheDir
		}
	}
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

type ClientOption func(*ClientOptions)

func defaultClientOptions() ClientOptions {
	return ClientOptions{Timeout: 10 * time.Second, Headers: map[string]string{"Content-Type": "application/json"}}
}

func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		if url != "" {
			o.BaseURL = url
		}
	}
}

func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}
