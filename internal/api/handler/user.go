package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/philjnicholls/sendtokindle/internal/api/domain"
	"github.com/philjnicholls/sendtokindle/internal/api/dto"
	"github.com/philjnicholls/sendtokindle/internal/api/model"
	"github.com/philjnicholls/sendtokindle/internal/stage"
)

// Register handles POST /register
// Creates a new account, or re-registers an existing one with fresh tokens
// and a cleared verified flag, then mails a verification link.
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid registration body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user := model.User{
		Email:       req.Email,
		KindleEmail: req.KindleEmail,
		APIToken:    uuid.New().String(),
		EmailToken:  uuid.New().String(),
	}

	verifyLink := fmt.Sprintf("%s/verify?token=%s&email=%s", h.baseURL, user.EmailToken, user.Email)
	msg := &stage.Message{
		Sender:   stage.Address{Email: h.senderEmail, Name: h.senderName},
		To:       []stage.Address{{Email: user.Email}},
		Subject:  "Verify your email address",
		BodyText: fmt.Sprintf("Click the link to verify your email address and get instructions on how to start sending web pages to your Kindle. %s", verifyLink),
		BodyHTML: fmt.Sprintf(`<p><a href="%s">Click here</a> to verify your email address and get instructions on how to start sending web pages to your Kindle.</p>`, verifyLink),
	}

	// Send before saving. A re-register overwrites the existing tokens and
	// clears verified, so a mail outage must not touch the account.
	if _, err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		h.logger.Error("Failed to send verification email",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to send verification email",
		})
		return
	}

	if err := h.users.Save(c.Request.Context(), &user); err != nil {
		h.logger.Error("Failed to save user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register",
		})
		return
	}

	h.logger.Info("Verification email sent", slog.String("email", user.Email))

	c.JSON(http.StatusOK, dto.RegisterResponse{
		EmailSent: true,
		Email:     user.Email,
	})
}

// Verify handles GET /verify?email=&token=
// Confirms ownership of the registered email address using the token from
// the verification email and reveals the account's API token.
func (h *Handler) Verify(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")

	if email == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": `Missing parameter "email" or "token"`,
		})
		return
	}

	user, alreadyVerified, err := h.users.Verify(c.Request.Context(), email, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "No email found matching that token",
			})
			return
		}
		h.logger.Error("Failed to verify user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to verify",
		})
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{
		Verified:        true,
		AlreadyVerified: alreadyVerified,
		APIToken:        user.APIToken,
	})
}
