package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notification-center/internal/api/dto"
	"github.com/spec-kit/notification-center/internal/auth"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/service"
)

// PreferencesHandler exposes preference read/update endpoints.
type PreferencesHandler struct {
	preferences *service.PreferenceService
}

// NewPreferencesHandler constructs handler.
func NewPreferencesHandler(preferences *service.PreferenceService) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

// Get handles GET /api/v1/preferences.
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	pref, err := h.preferences.GetOrCreate(c.UserContext(), principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPreference(pref)})
}

// Update handles PATCH /api/v1/preferences.
func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	var req dto.PreferenceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.DigestFrequency != nil && !dto.ValidDigestFrequency(*req.DigestFrequency) {
		return fiber.NewError(http.StatusBadRequest, "unknown digest frequency")
	}

	pref, err := h.preferences.Update(c.UserContext(), principal.SubjectID, req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPreference(pref)})
}

// UpdateTypeSetting handles PUT /api/v1/preferences/types.
func (h *PreferencesHandler) UpdateTypeSetting(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	var req dto.TypeSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Type == "" || req.Channel == "" || req.Enabled == nil {
		return fiber.NewError(http.StatusBadRequest, "type, channel, enabled required")
	}
	if _, ok := dto.ParseChannels([]string{req.Channel}); !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown channel")
	}

	pref, err := h.preferences.UpdateTypeSetting(c.UserContext(), principal.SubjectID,
		domain.NotificationType(req.Type), domain.ChannelKey(req.Channel), *req.Enabled)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPreference(pref)})
}
