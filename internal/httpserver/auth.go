// internal/httpserver/auth.go
//
// Accounts and tokens for the reference API.
// Responsibilities:
//   - POST /auth/register, /auth/login, /auth/verify; GET /api/user/me.
//   - User rows (bcrypt hashes, unique pseudo and email).
//   - HS256 JWT signing/verification and the bearer-token middleware.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var errTaken = errors.New("pseudo or email already registered")

// signupError is a registration input the client has to fix.
type signupError string

func (e signupError) Error() string { return string(e) }

const badLogin = "Invalid email or password"

type registerReq struct {
	Pseudo   string `json:"pseudo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyReq struct {
	Token string `json:"token"`
}

// userRow matches the users table shape used by the handlers.
type userRow struct {
	ID           string
	Pseudo       string
	Email        string
	PasswordHash string
}

// authUser is placed into request context by requireAuth.
type authUser struct {
	ID     string
	Pseudo string
}

// claims carries the user id next to the registered JWT fields.
type claims struct {
	UserID string `json:"uid"`
	Pseudo string `json:"pseudo"`
	jwt.RegisteredClaims
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/register", s.handleRegister)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/verify", s.handleVerify)
	s.r.With(s.requireAuth).Get("/api/user/me", s.handleMe)
}

// handleRegister creates a user. The client logs in separately afterwards.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.createUser(r.Context(), body.Pseudo, body.Email, body.Password)
	var bad signupError
	switch {
	case errors.Is(err, errTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, bad.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("create user")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	log.Info().Str("user", u.ID).Str("pseudo", u.Pseudo).Msg("registered")
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.ID, "pseudo": u.Pseudo, "email": u.Email})
}

// handleLogin checks credentials and returns a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.findUserByEmail(r.Context(), strings.TrimSpace(body.Email))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, badLogin)
		return
	}
	tok, err := s.signJWT(u.ID, u.Pseudo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// handleVerify answers 200 for a token that is valid and whose user still exists.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body verifyReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	if _, err := s.authenticate(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	u, err := s.findUserByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pseudo": u.Pseudo, "email": u.Email})
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid bearer JWT and injects authUser into request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		me, err := s.authenticate(r.Context(), tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
	})
}

// currentUser is only valid behind requireAuth.
func currentUser(r *http.Request) *authUser {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return me
}

// authenticate verifies tok and makes sure its user still exists.
func (s *Server) authenticate(ctx context.Context, tok string) (*authUser, error) {
	c, err := s.verifyJWT(tok)
	if err != nil {
		return nil, err
	}
	if c.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	u, err := s.findUserByID(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	return &authUser{ID: u.ID, Pseudo: u.Pseudo}, nil
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// ------------------------------ JWT ----------------------------------------

func (s *Server) signJWT(id, pseudo string) (string, error) {
	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: id,
		Pseudo: pseudo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	})
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) verifyJWT(tok string) (*claims, error) {
	t, err := jwt.ParseWithClaims(tok, &claims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

// ------------------------ users --------------------------------------------

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(ctx context.Context, pseudo, email, pw string) (*userRow, error) {
	pseudo, email = strings.TrimSpace(pseudo), strings.TrimSpace(email)
	if err := validateSignup(pseudo, email, pw); err != nil {
		return nil, err
	}
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE lower(pseudo)=lower(?) OR lower(email)=lower(?) LIMIT 1`, pseudo, email).Scan(&exists)
	switch {
	case err == nil:
		return nil, errTaken
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{ID: uuid.NewString(), Pseudo: pseudo, Email: email, PasswordHash: string(h)}
	if err := s.insertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// insertUser stores u. A concurrent signup that won the race for the pseudo
// or email surfaces as errTaken.
func (s *Server) insertUser(ctx context.Context, u *userRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, pseudo, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Pseudo, u.Email, u.PasswordHash, s.now().UTC().Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return errTaken
	}
	return err
}

func (s *Server) findUserByEmail(ctx context.Context, email string) (*userRow, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, pseudo, email, password_hash FROM users WHERE lower(email)=lower(?)`, email))
}

func (s *Server) findUserByID(ctx context.Context, id string) (*userRow, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, pseudo, email, password_hash FROM users WHERE id=?`, id))
}

func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	if err := row.Scan(&u.ID, &u.Pseudo, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces basic pseudo/email/password rules.
func validateSignup(pseudo, email, pw string) error {
	if len(pseudo) < 3 || len(pseudo) > 24 {
		return signupError("pseudo must be 3 to 24 chars")
	}
	for _, r := range pseudo {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return signupError("pseudo: letters, numbers, underscore only")
		}
	}
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return signupError("invalid email")
	}
	if len(pw) < 8 || len(pw) > 72 {
		return signupError("password must be 8 to 72 chars")
	}
	return nil
}
