package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/relloyd/snowmerge/logger"
)

// newStatusRouter returns the routes served while a run is in progress.
func newStatusRouter(log logger.Logger, status *RunStatus, stop func()) *mux.Router {
	r := mux.NewRouter()
	r.Path("/health").Methods(http.MethodGet).HandlerFunc(GetHandlerHealth(log))
	r.Path("/status").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, status))
	r.Path("/stop").Methods(http.MethodGet, http.MethodPost).HandlerFunc(GetHandlerStop(log, stop))
	return r
}

// runStatusServer starts a web server on port and returns it, non-blocking.
// The listener is opened before returning so a bad port is reported straight away.
func runStatusServer(log logger.Logger, port int, status *RunStatus, stop func()) (*http.Server, error) {
	srv := &http.Server{ // set timeouts to avoid Slowloris attacks.
		Addr:         fmt.Sprintf(":%v", port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newStatusRouter(log, status, stop),
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("unable to start status server: %w", err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error(err)
		}
	}()
	log.Info(fmt.Sprintf("Listening on http://%v", ln.Addr()))
	return srv, nil
}

func shutdownStatusServer(log logger.Logger, srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("error shutting down status server: ", err)
	}
}
