package handlers

import (
	"net/http"
	"net/url"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Errorf("%s: %v", logMsg, err)
	}

	http.Error(w, userMsg, status)
}

// redirectToLogin sends the browser to the login page with msg shown as the error
func redirectToLogin(w http.ResponseWriter, r *http.Request, msg string) {
	target := loginPath
	if msg != "" {
		target += "?error=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
