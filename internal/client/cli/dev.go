package cli

import (
	"context"
	"errors"
	"fmt"
)

type route struct {
	Category string
	Label    string
	Path     string
}

// appRoutes is the navigation map of the companion mobile app, shown by the
// routes command.
var appRoutes = []route{
	{"Main App", "Home", "/(tabs)/"},
	{"Main App", "Track Journey", "/(tabs)/track"},
	{"Main App", "Progress", "/(tabs)/progress"},
	{"Main App", "Learn", "/(tabs)/learn"},
	{"Main App", "Settings", "/(tabs)/settings"},
	{"Auth", "Login", "/login"},
	{"Special", "Thank You Page", "/thankyou"},
	{"Help", "How to Use", "/(tabs)/help"},
	{"Help", "Help Center", "/(tabs)/help-center"},
	{"Help", "Video Tutorial", "/video-tutorial"},
	{"External", "Package Tracking", "/package-tracking"},
	{"External", "Dashboard (Tracking)", "/(tabs)/dashboard"},
	{"External", "WebView Fullscreen", "/webview-fullscreen"},
	{"External", "Product Support", "/support"},
	{"External", "Marketplace", "/marketplace"},
}

var errUnsupported = errors.New("not supported by this backend")

func (a *App) Routes(_ context.Context) error {
	category := ""
	for _, r := range appRoutes {
		if r.Category != category {
			category = r.Category
			printlnFn(category)
		}
		printlnFn(fmt.Sprintf("  %-22s %s", r.Label, r.Path))
	}
	return nil
}

// Diag prints the session state and, for the remote backend, probes the
// identity provider.
func (a *App) Diag(ctx context.Context) error {
	st := a.store.State()
	printlnFn(fmt.Sprintf("initialized=%t authenticated=%t loading=%t new_user=%t",
		st.IsInitialized, st.IsAuthenticated, st.IsLoading, st.IsNewUser))
	if st.User != nil {
		printlnFn("user:", st.User.ID, st.User.Email)
	}

	if a.checker == nil {
		return errUnsupported
	}
	if err := a.checker.CheckConnection(ctx); err != nil {
		return fmt.Errorf("connection check: %w", err)
	}
	printlnFn("Connection OK")
	return nil
}

// Reset signs out and deletes every locally stored account.
func (a *App) Reset(ctx context.Context) error {
	if a.resetter == nil {
		return errUnsupported
	}
	a.store.SignOut(ctx)
	n, err := a.resetter.ClearAll(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Removed %d local records", n))
	return nil
}
