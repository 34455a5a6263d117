/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
)

const cassetteName = "fixtures/confluence-copy"

// requestTimeout bounds each HTTP request; the copy itself has no deadline.
const requestTimeout = 2 * time.Minute

type connection struct {
	BaseURL  string
	Instance string
	Username string
	Token    string
	WithVCR  bool
}

// connectionFromFlags gathers the connection settings from flags and config, running
// --auth-token-cmd for the token.
func connectionFromFlags() (connection, error) {
	if len(AuthTokenCmd) < 1 {
		return connection{}, errors.New("confluence-copy: please provide --auth-token-cmd")
	}

	tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
	if err != nil {
		return connection{}, errors.Errorf("confluence-copy: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
	}

	return connection{
		BaseURL:  BaseURL,
		Instance: ConfluenceInstance,
		Username: AuthUsername,
		Token:    strings.Split(string(tokenCmdOutput), "\n")[0],
		WithVCR:  WithVCR,
	}, nil
}

// connect builds the API client and checks the credentials work.  The returned func has to be
// called when done with the client.
func connect(ctx context.Context, conn connection) (*confluence.API, func(), error) {
	var (
		api *confluence.API
		err error
	)
	if conn.BaseURL != "" {
		api, err = confluence.NewAPIWithBaseURL(conn.BaseURL, conn.Username, conn.Token)
	} else {
		api, err = confluence.NewAPI(conn.Instance, conn.Username, conn.Token)
	}
	if err != nil {
		return nil, nil, errors.Errorf("confluence-copy: couldn't instantiate Confluence API: %w", err)
	}

	done := func() {}
	if conn.WithVCR {
		r, err := recordingClient(cassetteName)
		if err != nil {
			return nil, nil, err
		}
		api.Client = r.GetDefaultClient()
		done = func() {
			if err := r.Stop(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Couldn't save go-vcr cassette")
			}
		}
	}
	api.Client.Timeout = requestTimeout

	user, err := api.CurrentUser(ctx)
	if err != nil {
		done()
		return nil, nil, errors.Errorf("confluence-copy: couldn't query current user: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Str("user", user.DisplayName).
		Str("account", user.AccountID).
		Str("wiki", api.BaseURI.String()).
		Msg("Logged in")

	return api, done, nil
}

// checkRecording refuses --with-vcr for real runs: replayed reads would hand stale answers to the
// title check.
func checkRecording(withVCR bool, mode deepcopy.ExecutionMode) error {
	if withVCR && mode == deepcopy.RealRun {
		return errors.New("confluence-copy: --with-vcr only works together with --dry-run")
	}
	return nil
}

// recordingClient records and replays reads.  Anything else always goes to the server.
func recordingClient(name string) (*recorder.Recorder, error) {
	opts := &recorder.Options{
		CassetteName:       name,
		Mode:               recorder.ModeReplayWithNewEpisodes,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	}
	r, err := recorder.NewWithOptions(opts)
	if err != nil {
		return nil, errors.Errorf("confluence-copy: couldn't set up go-vcr recording: %w", err)
	}

	// Add a hook which removes Authorization headers from all requests
	hook := func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	}
	r.AddHook(hook, recorder.AfterCaptureHook)
	r.AddPassthrough(func(req *http.Request) bool {
		return req.Method != http.MethodGet
	})
	r.SetReplayableInteractions(true)

	return r, nil
}
