package main

import (
	"errors"
	"net/http"

	"bazaar/internal/mailer"
	"bazaar/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

type RegisterUserPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin customer"`
}

type CreateUserTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// setAuthCookies sets access + refresh tokens as HttpOnly cookies.
// Web browsers store/send these automatically; JS cannot read them (HttpOnly).
func (app *application) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	// Access token cookie (short lived)
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.accessTokenExp.Seconds()),
	})

	// Refresh token cookie (long lived), only sent to refresh/logout
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/v1/auth",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.refreshTokenExp.Seconds()),
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	expire := func(name, path string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			HttpOnly: true,
			Secure:   app.config.env == "production",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}

	expire("access_token", "/")
	expire("refresh_token", "/v1/auth")
}

// registerUserHandler godoc
//
//	@Summary		Register a new customer account
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"User credentials"
//	@Success		201		{object}	map[string]UserResponse
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Router			/auth/register [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	role := payload.Role
	if role == "" {
		role = store.RoleCustomer
	}

	user := &store.User{
		Name:  payload.Name,
		Email: payload.Email,
		Role:  role,
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Email, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	// best effort, registration already succeeded
	go func() {
		if _, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.Name, user.Email, map[string]string{
			"Username": user.Name,
		}); err != nil {
			app.logger.Warnw("welcome email failed", "email", user.Email, "error", err)
		}
	}()

	_ = app.jsonResponse(w, http.StatusCreated, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// loginHandler godoc
//
//	@Summary		Sign in with email and password
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	map[string]UserResponse
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}
	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Email, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Save refresh token in DB for rotation/revocation
	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	_ = app.jsonResponse(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	// take refresh token from cookie
	c, err := r.Cookie("refresh_token")
	if err != nil || c.Value == "" {
		app.unauthorizedErrorResponse(w, r, errors.New("missing refresh token"))
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(c.Value)
	if err != nil || !token.Valid {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid refresh token"))
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid claims"))
		return
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid sub claim"))
		return
	}

	// Ensure refresh token matches DB (rotation safety)
	saved, err := app.store.Users.GetRefreshToken(r.Context(), userID)
	if err != nil || saved != c.Value {
		app.unauthorizedErrorResponse(w, r, errors.New("refresh token mismatch"))
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, newRefresh, err := app.authenticator.GenerateTokens(user.ID, user.Email, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, newRefresh); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, newRefresh)

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	if claims == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("not authorized"))
		return
	}

	if err := app.store.Users.DeleteRefreshToken(r.Context(), claims.UserID); err != nil {
		app.logger.Warnw("failed to delete refresh token on logout", "user_id", claims.UserID, "error", err)
	}

	// Always clear cookies
	app.clearAuthCookies(w)

	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// verifyHandler godoc
//
//	@Summary		Get the current user
//	@Description	Requires a valid access token (cookie or bearer); returns the signed-in user.
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	map[string]UserResponse
//	@Failure		401	{object}	error
//	@Router			/auth/verify [get]
func (app *application) verifyHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	if claims == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("not authorized"))
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}
