package server

import (
	"context"
	"log/slog"
	"net/http"

	"tailscale.com/client/tailscale/apitype"
)

type contextKey int

const userInfoKey contextKey = iota

// UserInfo identifies the caller. Login doubles as the user id.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// WhoIser resolves a tailnet peer address. *local.Client from tsnet
// implements it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Identity resolves the caller and stores it in the request context. With a
// WhoIser every request must come from a known tailnet user; without one all
// requests act as devUser.
func Identity(whois WhoIser, devUser string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := UserInfo{Login: devUser, DisplayName: "Local Dev User"}
			if whois != nil {
				who, err := whois.WhoIs(r.Context(), r.RemoteAddr)
				if err != nil {
					log.Warn("tailscale whois failed", "remote_addr", r.RemoteAddr, "error", err)
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown tailnet peer"})
					return
				}
				if who.UserProfile == nil || who.UserProfile.LoginName == "" {
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "tailnet peer has no user"})
					return
				}
				info = UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userInfoKey, info)))
		})
	}
}

// userInfoFromContext returns the caller set by Identity, or the default
// dev identity.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{Login: "local", DisplayName: "Local Dev User"}
}

func userIDFromContext(r *http.Request) string {
	return userInfoFromContext(r).Login
}

// UserID returns the caller's id for handlers mounted outside this package.
func UserID(r *http.Request) string {
	return userIDFromContext(r)
}
