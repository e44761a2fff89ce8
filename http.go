package sorobonto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/rs/zerolog"

	"github.com/Dawdaborje/sorobonto-backend/compose"
)

// HandlerFunc executes one GraphQL request against the composed schema.
type HandlerFunc func(ctx context.Context, req *compose.Request) *graphql.Result

// MiddlewareFunc wraps a HandlerFunc. Middlewares run in the order given to
// WithMiddlewares.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// RequestObserver is told the duration and result of every executed request.
// metrics.Collector implements it.
type RequestObserver interface {
	ObserveRequest(d time.Duration, failed bool)
}

type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	Middlewares []MiddlewareFunc
	Logger      zerolog.Logger
	Observer    RequestObserver
}

// WithMiddlewares appends middlewares around query execution.
func WithMiddlewares(m ...MiddlewareFunc) HandlerOption {
	return func(o *handlerOptions) {
		o.Middlewares = append(o.Middlewares, m...)
	}
}

// WithLogger sets the logger failed requests are written to.
func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.Logger = logger
	}
}

// WithRequestObserver reports every executed request to o.
func WithRequestObserver(o RequestObserver) HandlerOption {
	return func(opts *handlerOptions) {
		opts.Observer = o
	}
}

// HTTPHandler implements the handler required for executing the graphql queries and mutations
func HTTPHandler(schema *compose.Schema, opts ...HandlerOption) http.Handler {
	h := &httpHandler{
		schema: schema,
	}

	o := handlerOptions{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	h.logger = o.Logger

	if o.Observer != nil {
		o.Middlewares = append([]MiddlewareFunc{observe(o.Observer)}, o.Middlewares...)
	}

	prev := h.execute
	for i := range o.Middlewares {
		prev = o.Middlewares[len(o.Middlewares)-1-i](prev)
	}
	h.exec = prev

	return h
}

type httpHandler struct {
	schema *compose.Schema
	logger zerolog.Logger

	exec HandlerFunc
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeResponse := func(result *graphql.Result) {
		responseJSON, err := json.Marshal(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		_, _ = w.Write(responseJSON)
	}
	writeError := func(err error) {
		writeResponse(&graphql.Result{Errors: gqlerrors.FormatErrors(err)})
	}

	if r.Method != http.MethodPost {
		writeError(errors.New("request must be a POST"))
		return
	}

	if r.Body == nil || r.Body == http.NoBody {
		writeError(errors.New("request must include a query"))
		return
	}

	var params compose.Request
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request must include a query")
		} else {
			err = fmt.Errorf("decode request: %w", err)
		}
		writeError(err)
		return
	}
	if params.Query == "" {
		writeError(errors.New("request must include a query"))
		return
	}

	ctx := addVariables(r.Context(), params.Variables)

	result := h.exec(ctx, &params)
	if result == nil {
		h.logger.Error().Str("operation", params.OperationName).Msg("graphql handler returned no result")
		result = &graphql.Result{Errors: gqlerrors.FormatErrors(errNoResult)}
	}
	if result.HasErrors() {
		h.logger.Debug().
			Str("operation", params.OperationName).
			Interface("errors", result.Errors).
			Msg("graphql request failed")
	}
	writeResponse(result)
}

// errNoResult is reported when a middleware returns a nil result.
var errNoResult = errors.New("internal error: no result")

func (h *httpHandler) execute(ctx context.Context, req *compose.Request) *graphql.Result {
	return h.schema.Do(ctx, *req)
}

func observe(o RequestObserver) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *compose.Request) *graphql.Result {
			start := time.Now()
			result := next(ctx, req)
			o.ObserveRequest(time.Since(start), result == nil || result.HasErrors())
			return result
		}
	}
}

type graphqlVariableKeyType int

const graphqlVariableKey graphqlVariableKeyType = 0

// ExtractVariables is used to returns the variables received as part of the graphql request.
// This is intended to be used from within the interceptors.
func ExtractVariables(ctx context.Context) map[string]interface{} {
	if v := ctx.Value(graphqlVariableKey); v != nil {
		return v.(map[string]interface{})
	}

	return nil
}

func addVariables(ctx context.Context, v map[string]interface{}) context.Context {
	return context.WithValue(ctx, graphqlVariableKey, v)
}

// playgroundTemplate loads GraphiQL from a CDN. It is used by PlaygroundHandler.
var playgroundTemplate = template.Must(template.New("playground").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <style>
        body {
            height: 100%;
            margin: 0;
            overflow: hidden;
        }
        #graphiql {
            height: 100vh;
        }
    </style>
    <link rel="stylesheet" href="https://unpkg.com/graphiql@1.4.0/graphiql.min.css" />
    <script src="https://unpkg.com/react@16.14.0/umd/react.production.min.js"></script>
    <script src="https://unpkg.com/react-dom@16.14.0/umd/react-dom.production.min.js"></script>
    <script src="https://unpkg.com/graphiql@1.4.0/graphiql.min.js"></script>
</head>
<body>
    <div id="graphiql">Loading...</div>
    <script>
      function graphQLFetcher(graphQLParams) {
        return fetch(
          {{.Endpoint}},
          {
            method: 'post',
            headers: {
              Accept: 'application/json',
              'Content-Type': 'application/json',
            },
            body: JSON.stringify(graphQLParams),
            credentials: 'omit',
          },
        ).then(function (response) {
          return response.json().catch(function () {
            return response.text();
          });
        });
      }

      ReactDOM.render(
        React.createElement(GraphiQL, {
          fetcher: graphQLFetcher,
        }),
        document.getElementById('graphiql'),
      );
    </script>
</body>
</html>`))

// PlaygroundHandler returns an HTTP handler that serves an interactive
// GraphiQL playground posting to graphqlEndpoint, the path HTTPHandler is
// mounted on:
//
//	r.Handle("/graphql", sorobonto.HTTPHandler(schema))
//	r.Handle("/", sorobonto.PlaygroundHandler("Sorobonto", "/graphql"))
func PlaygroundHandler(title, graphqlEndpoint string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var buf bytes.Buffer
		if err := playgroundTemplate.Execute(&buf, struct{ Title, Endpoint string }{title, graphqlEndpoint}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(buf.Bytes())
	})
}
