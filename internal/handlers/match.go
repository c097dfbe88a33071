package handlers

import (
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/match"
	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type MatchHandler struct {
	matches *match.Service
}

func NewMatchHandler(matches *match.Service) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	page := utils.GetPagination(c, 1, 20)
	status := models.MatchStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.ValidationError(c, "unknown status "+string(status))
	}

	matches, total, err := h.matches.List(c.UserContext(), repositories.MatchFilter{
		Status: status,
		Game:   c.Query("game"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return err
	}
	return paginated(c, matches, page, total)
}

func (h *MatchHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.matches.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "match retrieved", m)
}

func (h *MatchHandler) Join(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req match.JoinRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.matches.Join(c.UserContext(), id, claims.UserID, req)
	if err != nil {
		return err
	}
	return response.Success(c, "joined match", res)
}

func (h *MatchHandler) Leave(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	refund, err := h.matches.Leave(c.UserContext(), id, claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "left match", fiber.Map{"match_id": id, "refund": refund})
}

func (h *MatchHandler) Room(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	room, err := h.matches.RoomFor(c.UserContext(), claims.UserID, id)
	if err != nil {
		return err
	}
	return response.Success(c, "room credentials", room)
}

func (h *MatchHandler) Create(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	var in match.MatchInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	m, err := h.matches.Create(c.UserContext(), claims.UserID, in)
	if err != nil {
		return err
	}
	return response.Created(c, "match created", m)
}

func (h *MatchHandler) Delete(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.matches.Delete(c.UserContext(), claims.UserID, id); err != nil {
		return err
	}
	return response.Success(c, "match deleted", fiber.Map{"match_id": id})
}

func (h *MatchHandler) OpenRegistration(c *fiber.Ctx) error {
	return h.adminAction(c, "registration opened", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.OpenRegistration(c.UserContext(), adminID, matchID)
	})
}

func (h *MatchHandler) SetRoomCredentials(c *fiber.Ctx) error {
	var input struct {
		RoomID       string `json:"roomId" validate:"required,max=64"`
		RoomPassword string `json:"roomPassword" validate:"required,max=64"`
		RevealNow    bool   `json:"revealNow"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	return h.adminAction(c, "room credentials saved", func(adminID, matchID uint) (interface{}, error) {
		m, err := h.matches.SetRoomCredentials(c.UserContext(), adminID, matchID, input.RoomID, input.RoomPassword, input.RevealNow)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"match_id": m.ID, "status": m.Status, "revealed": m.RoomCredentialsVisible}, nil
	})
}

func (h *MatchHandler) Start(c *fiber.Ctx) error {
	return h.adminAction(c, "match started", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.Start(c.UserContext(), adminID, matchID)
	})
}

type resultsInput struct {
	Results []match.Result `json:"results"`
}

func (h *MatchHandler) SubmitResults(c *fiber.Ctx) error {
	var input resultsInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	return h.adminAction(c, "results recorded", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.SubmitResults(c.UserContext(), adminID, matchID, input.Results)
	})
}

func (h *MatchHandler) Complete(c *fiber.Ctx) error {
	var input resultsInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	return h.adminAction(c, "match completed", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.Complete(c.UserContext(), adminID, matchID, input.Results)
	})
}

// Cancel answers 200 with the refund report even when some refunds failed.
func (h *MatchHandler) Cancel(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason" validate:"max=500"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}
	return h.adminAction(c, "match cancelled", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.Cancel(c.UserContext(), adminID, matchID, input.Reason)
	})
}

func (h *MatchHandler) RetryRefunds(c *fiber.Ctx) error {
	return h.adminAction(c, "refunds retried", func(adminID, matchID uint) (interface{}, error) {
		return h.matches.RetryRefunds(c.UserContext(), adminID, matchID)
	})
}

func (h *MatchHandler) adminAction(c *fiber.Ctx, message string, fn func(adminID, matchID uint) (interface{}, error)) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	out, err := fn(claims.UserID, id)
	if err != nil {
		return err
	}
	return response.Success(c, message, out)
}
