package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/models"
)

var validate = validator.New()

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         authUserView `json:"user"`
}

type authUserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func respondValidationError(c *gin.Context, route string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		respondWithError(c, http.StatusBadRequest, route,
			"invalid field: "+strings.ToLower(field.Field()))
		return
	}
	respondWithError(c, http.StatusBadRequest, route, "invalid request body")
}

func issueUserToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"email":  user.Email,
		"exp":    time.Now().Add(config.AppEnv.AccessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppEnv.JWTSecret))
}

func newRefreshToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashRefreshToken(raw), nil
}

func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func persistRefreshToken(ctx context.Context, db *mongo.Database, user models.User, hash string) error {
	_, err := db.Collection("refresh_tokens").InsertOne(ctx, models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(config.AppEnv.RefreshTokenTTL),
		CreatedAt: time.Now(),
	})
	return err
}

func buildAuthResponse(ctx context.Context, db *mongo.Database, user models.User) (authResponse, error) {
	token, err := issueUserToken(user)
	if err != nil {
		return authResponse{}, err
	}
	rawRefresh, refreshHash, err := newRefreshToken()
	if err != nil {
		return authResponse{}, err
	}
	if err := persistRefreshToken(ctx, db, user, refreshHash); err != nil {
		return authResponse{}, err
	}
	return authResponse{
		Token:        token,
		RefreshToken: rawRefresh,
		User: authUserView{
			ID:    user.ID.Hex(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Register creates a user account and signs it in immediately.
func Register(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "AUTH", "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(c, "AUTH", err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(req.Email))

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to check email")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusBadRequest, "AUTH", "User already exists")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to hash password")
			return
		}

		now := time.Now()
		user := models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: string(hashed),
			Role:         "user",
			Cart:         models.Cart{Items: []models.CartItem{}},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		result, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusBadRequest, "AUTH", "User already exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to create user")
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)

		resp, err := buildAuthResponse(ctx, db, user)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to issue token")
			return
		}

		log.Println("[AUTH] registered user:", user.Email)
		c.JSON(http.StatusCreated, resp)
	}
}

// Login verifies credentials and issues a fresh token pair.
func Login(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "AUTH", "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(c, "AUTH", err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "Invalid email or password")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "Invalid email or password")
			return
		}

		resp, err := buildAuthResponse(ctx, db, user)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to issue token")
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// RefreshSession rotates a refresh token: the presented token is revoked and
// a new pair is issued in its place.
func RefreshSession(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "AUTH", "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(c, "AUTH", err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		hash := hashRefreshToken(strings.TrimSpace(req.RefreshToken))

		var stored models.RefreshToken
		err := db.Collection("refresh_tokens").FindOne(ctx, bson.M{
			"tokenHash": hash,
			"revoked":   false,
			"expiresAt": bson.M{"$gt": time.Now()},
		}).Decode(&stored)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "invalid refresh token")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": stored.UserID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "invalid refresh token")
			return
		}

		resp, err := buildAuthResponse(ctx, db, user)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", "failed to issue token")
			return
		}

		_, err = db.Collection("refresh_tokens").UpdateByID(ctx, stored.ID,
			bson.M{"$set": bson.M{"revoked": true}})
		if err != nil {
			log.Println("[AUTH] failed to revoke rotated refresh token:", err)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Logout revokes the presented refresh token. Missing or already-revoked
// tokens are treated as success.
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil && strings.TrimSpace(req.RefreshToken) != "" {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()

			_, err := db.Collection("refresh_tokens").UpdateOne(ctx,
				bson.M{"tokenHash": hashRefreshToken(strings.TrimSpace(req.RefreshToken))},
				bson.M{"$set": bson.M{"revoked": true}})
			if err != nil {
				log.Println("[AUTH] failed to revoke refresh token:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// GetMe returns the authenticated user's profile without the password hash.
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "AUTH", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID},
			options.FindOne().SetProjection(bson.M{"passwordHash": 0})).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusNotFound, "AUTH", "User not found")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
