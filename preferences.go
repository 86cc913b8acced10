package storysite

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const prefsSessionName = "prefs"

// Preference values accepted from clients.
const (
	themeLight = "light"
	themeDark  = "dark"
)

// GET /api/preferences — the visitor's saved theme/language, with defaults.
func (a *App) handleGetPreferences(c echo.Context) error {
	return c.JSON(http.StatusOK, readPreferences(c))
}

// PUT /api/preferences
func (a *App) handlePutPreferences(c echo.Context) error {
	var prefs Preferences
	if err := c.Bind(&prefs); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if prefs.Theme != themeLight && prefs.Theme != themeDark {
		return jsonError(c, http.StatusBadRequest, "Theme must be light or dark")
	}
	if prefs.Language != LanguageEN && prefs.Language != LanguageID {
		return jsonError(c, http.StatusBadRequest, "Language must be en or id")
	}
	sess, err := session.Get(prefsSessionName, c)
	if err != nil {
		return err
	}
	sess.Values["theme"] = prefs.Theme
	sess.Values["language"] = prefs.Language
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

func readPreferences(c echo.Context) Preferences {
	prefs := Preferences{Theme: themeLight, Language: LanguageEN}
	sess, err := session.Get(prefsSessionName, c)
	if err != nil {
		return prefs
	}
	if v, ok := sess.Values["theme"].(string); ok && v != "" {
		prefs.Theme = v
	}
	if v, ok := sess.Values["language"].(string); ok && v != "" {
		prefs.Language = v
	}
	return prefs
}
