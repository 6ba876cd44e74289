package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dosekeeper/internal/session"
)

func statusLine(st session.State) string {
	s := ""
	switch {
	case !st.IsInitialized:
		s = "starting"
	case st.User != nil:
		s = st.User.Name
		if st.IsNewUser {
			s += " new"
		}
	}
	if st.IsLoading {
		if s != "" {
			s += " "
		}
		s += "…"
	}
	if s != "" {
		s = fmt.Sprintf(" (%s)", s)
	}
	return s
}

func (a *App) getStatus() string {
	return statusLine(a.store.State())
}

// followState logs authentication transitions, including sign-outs forced by
// the session watcher, until ctx is done.
func (a *App) followState(ctx context.Context) {
	ch, cancel := a.store.Subscribe()
	defer cancel()

	authed := a.store.State().IsAuthenticated
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			if st.IsAuthenticated == authed {
				continue
			}
			authed = st.IsAuthenticated
			if authed {
				a.log.Info(ctx, "signed in", "user_id", st.User.ID)
			} else {
				a.log.Info(ctx, "signed out")
			}
		}
	}
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to DoseKeeper (type 'help' for commands)")

	if st := a.store.State(); st.User != nil {
		printlnFn("Signed in as", st.User.Name)
	}

	go a.followState(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
