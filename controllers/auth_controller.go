package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"google.golang.org/api/idtoken"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/metrics"
	"github.com/taoyuan-youth/civic-server/middleware"
	"github.com/taoyuan-youth/civic-server/utils"
)

// Provider endpoints live in package vars so tests can point them at fake
// servers.
var (
	googleEndpoint   = endpoints.Google
	facebookEndpoint = endpoints.Facebook
	lineEndpoint     = oauth2.Endpoint{
		AuthURL:   "https://access.line.me/oauth2/v2.1/authorize",
		TokenURL:  "https://api.line.me/oauth2/v2.1/token",
		AuthStyle: oauth2.AuthStyleInParams, // LINE wants form-encoded credentials
	}

	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	lineProfileURL     = "https://api.line.me/v2/profile"
	facebookProfileURL = "https://graph.facebook.com/me"
)

// AuthConfig exposes the public half of each provider's configuration so the
// frontend can build login buttons. Secrets never leave the server.
func AuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"google": gin.H{
			"enabled":      config.App.Google.ClientID != "",
			"client_id":    config.App.Google.ClientID,
			"redirect_uri": config.App.Google.RedirectURI,
		},
		"line": gin.H{
			"enabled":      config.App.Line.ClientID != "",
			"channel_id":   config.App.Line.ClientID,
			"redirect_uri": config.App.Line.RedirectURI,
		},
		"facebook": gin.H{
			"enabled":      config.App.Facebook.ClientID != "",
			"app_id":       config.App.Facebook.ClientID,
			"redirect_uri": config.App.Facebook.RedirectURI,
		},
	})
}

func oauthConfigFor(p config.OAuthProvider, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Endpoint:     endpoint,
	}
}

// exchangeCode runs the shared front half of every callback: query validation
// and the authorization-code exchange.
func exchangeCode(c *gin.Context, provider string, conf *oauth2.Config) (*oauth2.Token, bool) {
	if errParam := c.Query("error"); errParam != "" {
		log.WithFields(log.Fields{"provider": provider, "error": errParam}).Error("OAuth authorization denied")
		c.Redirect(http.StatusFound, "/?error="+provider+"_auth_failed")
		return nil, false
	}
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/?error=no_code")
		return nil, false
	}

	token, err := conf.Exchange(c.Request.Context(), code)
	if err != nil {
		log.WithError(err).WithField("provider", provider).Error("OAuth token exchange failed")
		c.Redirect(http.StatusFound, "/?error="+provider+"_token_exchange_failed")
		return nil, false
	}
	return token, true
}

func fetchProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, profileURL string, out interface{}) error {
	resp, err := conf.Client(ctx, token).Get(profileURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile endpoint returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GoogleCallback handles the Google authorization-code redirect.
func GoogleCallback(c *gin.Context) {
	conf := oauthConfigFor(config.App.Google, googleEndpoint)
	token, ok := exchangeCode(c, "google", conf)
	if !ok {
		return
	}

	var info struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := fetchProfile(c.Request.Context(), conf, token, googleUserInfoURL, &info); err != nil || info.ID == "" {
		log.WithError(err).Error("Google userinfo fetch failed")
		c.Redirect(http.StatusFound, "/?error=google_token_exchange_failed")
		return
	}

	completeLogin(c, "google", "google_"+info.ID, MemberProfile{
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
		Email:       info.Email,
		Source:      "google",
	})
}

// LineCallback handles the LINE authorization-code redirect.
func LineCallback(c *gin.Context) {
	conf := oauthConfigFor(config.App.Line, lineEndpoint)
	token, ok := exchangeCode(c, "line", conf)
	if !ok {
		return
	}

	var profile struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		PictureURL  string `json:"pictureUrl"`
	}
	if err := fetchProfile(c.Request.Context(), conf, token, lineProfileURL, &profile); err != nil || profile.UserID == "" {
		log.WithError(err).Error("LINE profile fetch failed")
		c.Redirect(http.StatusFound, "/?error=line_token_exchange_failed")
		return
	}

	completeLogin(c, "line", "line_"+profile.UserID, MemberProfile{
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.PictureURL,
		Source:      "line",
	})
}

// FacebookCallback handles the Facebook authorization-code redirect.
func FacebookCallback(c *gin.Context) {
	conf := oauthConfigFor(config.App.Facebook, facebookEndpoint)
	token, ok := exchangeCode(c, "facebook", conf)
	if !ok {
		return
	}

	profileURL := facebookProfileURL + "?" + url.Values{
		"fields": {"id,name,email,picture.type(large)"},
	}.Encode()

	var profile struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := fetchProfile(c.Request.Context(), conf, token, profileURL, &profile); err != nil || profile.ID == "" {
		log.WithError(err).Error("Facebook profile fetch failed")
		c.Redirect(http.StatusFound, "/?error=facebook_token_exchange_failed")
		return
	}

	completeLogin(c, "facebook", "facebook_"+profile.ID, MemberProfile{
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture.Data.URL,
		Email:       profile.Email,
		Source:      "facebook",
	})
}

type googleTokenLoginReq struct {
	Credential string `json:"credential" binding:"required"`
}

// GoogleTokenLogin accepts a Google ID token (one-tap / GIS button) instead of
// the full redirect flow.
func GoogleTokenLogin(c *gin.Context) {
	var req googleTokenLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "credential is required"})
		return
	}

	payload, err := idtoken.Validate(c.Request.Context(), req.Credential, config.App.Google.ClientID)
	if err != nil {
		log.WithError(err).Error("Google ID token validation failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
		return
	}

	name, _ := payload.Claims["name"].(string)
	email, _ := payload.Claims["email"].(string)
	picture, _ := payload.Claims["picture"].(string)

	memberID, err := UpsertMember("google_"+payload.Subject, MemberProfile{
		DisplayName: name,
		AvatarURL:   picture,
		Email:       email,
		Source:      "google",
	})
	if err != nil || memberID == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store member"})
		return
	}

	claims := utils.SessionClaims{
		MemberID:   *memberID,
		Provider:   "google",
		ExternalID: "google_" + payload.Subject,
		Name:       name,
		Email:      email,
		Picture:    picture,
	}
	if !issueSessionCookie(c, claims) {
		return
	}
	metrics.OAuthLogins.WithLabelValues("google").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "user": sessionUserPayload(claims)})
}

// completeLogin upserts the member, sets the session cookie and redirects back
// to the frontend.
func completeLogin(c *gin.Context, provider, externalID string, profile MemberProfile) {
	memberID, err := UpsertMember(externalID, profile)
	if err != nil || memberID == nil {
		log.WithError(err).WithField("provider", provider).Error("member upsert failed")
		c.Redirect(http.StatusFound, "/?error="+provider+"_token_exchange_failed")
		return
	}

	claims := utils.SessionClaims{
		MemberID:   *memberID,
		Provider:   provider,
		ExternalID: externalID,
		Name:       profile.DisplayName,
		Email:      profile.Email,
		Picture:    profile.AvatarURL,
	}
	if !issueSessionCookie(c, claims) {
		return
	}
	metrics.OAuthLogins.WithLabelValues(provider).Inc()
	c.Redirect(http.StatusFound, "/?login=success")
}

func issueSessionCookie(c *gin.Context, claims utils.SessionClaims) bool {
	token, err := utils.GenerateSessionToken(claims)
	if err != nil {
		log.WithError(err).Error("cannot sign session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create session"})
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(utils.SessionLifetime.Seconds()), "/", "", config.App.CookieSecure, true)
	return true
}

func sessionUserPayload(claims utils.SessionClaims) gin.H {
	return gin.H{
		"member_id":   claims.MemberID,
		"provider":    claims.Provider,
		"external_id": claims.ExternalID,
		"name":        claims.Name,
		"email":       claims.Email,
		"picture":     claims.Picture,
	}
}

// CurrentUser returns the authenticated member from the session cookie.
func CurrentUser(c *gin.Context) {
	claims := c.MustGet(middleware.CtxClaims).(*utils.SessionClaims)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": sessionUserPayload(*claims)})
}

// Logout clears the session cookie.
func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", config.App.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
