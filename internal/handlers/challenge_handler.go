package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/challenge"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

type ChallengeHandler struct {
	issuer   *challenge.Issuer
	verifier *challenge.Verifier
	store    challenge.Store
	mode     intake.ChallengeMode
}

// NewChallengeHandler serves the math challenge. store is required in token
// mode only.
func NewChallengeHandler(issuer *challenge.Issuer, verifier *challenge.Verifier, store challenge.Store, mode intake.ChallengeMode) *ChallengeHandler {
	return &ChallengeHandler{issuer: issuer, verifier: verifier, store: store, mode: mode}
}

func (h *ChallengeHandler) Issue(c *fiber.Ctx) error {
	if h.mode == intake.ChallengeToken {
		token, ch, err := challenge.Issue(c.UserContext(), h.issuer, h.store, h.verifier.MaxAge)
		if err != nil {
			return err
		}
		return c.JSON(dto.ChallengeResponse{
			Challenge: dto.ChallengeQuestion{
				Question:  ch.Question,
				Timestamp: ch.IssuedAt.UnixMilli(),
				Token:     token,
			},
		})
	}

	ch := h.issuer.Issue()
	ts := ch.IssuedAt.UnixMilli()
	return c.JSON(dto.ChallengeResponse{
		Challenge:  dto.ChallengeQuestion{Question: ch.Question, Timestamp: ts},
		ServerData: &dto.ChallengeServerData{ExpectedAnswer: ch.Answer, Timestamp: ts},
	})
}

func (h *ChallengeHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	answer, err := challenge.AnswerText("answer", req.Answer)
	if err == nil {
		switch {
		case h.mode == intake.ChallengeToken:
			if req.Token == "" {
				err = rejection.New(rejection.MissingField, "token", "Missing challenge data")
			} else {
				err = challenge.VerifyToken(c.UserContext(), h.verifier, h.store, req.Token, answer)
			}
		case req.ExpectedAnswer == "" || req.Timestamp == 0:
			err = rejection.New(rejection.MissingField, "expectedAnswer", "Missing challenge data")
		default:
			err = h.verifier.Verify(answer, req.ExpectedAnswer, challenge.FromMillis(req.Timestamp))
		}
	}

	if err != nil {
		if rej, ok := rejection.As(err); ok {
			return respondRejected(c, rej, "challenge")
		}
		return err
	}
	return c.JSON(dto.VerifyChallengeResponse{Valid: true})
}
