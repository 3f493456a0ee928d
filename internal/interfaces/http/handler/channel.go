package handler

import (
	"time"

	channelapp "github.com/channelsync/backend/internal/application/channel"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChannelHandler handles sales channel API endpoints
type ChannelHandler struct {
	BaseHandler
	channelService *channelapp.ChannelServiceImpl
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(channelService *channelapp.ChannelServiceImpl) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// CreateChannelRequest represents a request to create a sales channel
// @Description Request body for creating a sales channel
type CreateChannelRequest struct {
	Name          string                 `json:"name" binding:"required,min=1,max=200" example:"Amazon US"`
	Description   string                 `json:"description" binding:"omitempty,max=2000"`
	ChannelType   string                 `json:"channel_type" binding:"required,oneof=marketplace retail wholesale b2b custom" example:"marketplace"`
	Priority      int                    `json:"priority" example:"10"`
	Configuration *channel.Configuration `json:"configuration"`
}

// UpdateChannelRequest represents a partial channel update
// @Description Request body for updating a channel; omitted fields are unchanged
type UpdateChannelRequest struct {
	Name          *string                `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string                `json:"description" binding:"omitempty,max=2000"`
	Priority      *int                   `json:"priority"`
	Configuration *channel.Configuration `json:"configuration"`
	IsActive      *bool                  `json:"is_active"`
}

// StrategyOverrideInput represents a partial pricing strategy override
// @Description Per-link pricing override; omitted fields inherit from the catalog
type StrategyOverrideInput struct {
	MarkupType   *string  `json:"markup_type" binding:"omitempty,oneof=percentage fixed"`
	MarkupValue  *float64 `json:"markup_value"`
	RoundingRule *string  `json:"rounding_rule" binding:"omitempty,oneof=none to_99 to_dollar"`
}

func (in *StrategyOverrideInput) toDomain() *channel.StrategyOverride {
	override := &channel.StrategyOverride{}
	if in.MarkupType != nil {
		markupType := catalog.MarkupType(*in.MarkupType)
		override.MarkupType = &markupType
	}
	if in.MarkupValue != nil {
		value := toDecimal(*in.MarkupValue)
		override.MarkupValue = &value
	}
	if in.RoundingRule != nil {
		rule := catalog.RoundingRule(*in.RoundingRule)
		override.RoundingRule = &rule
	}
	return override
}

// LinkCatalogRequest represents a request to assign a catalog to a channel
// @Description Request body for linking a catalog to a channel
type LinkCatalogRequest struct {
	CatalogID        string                 `json:"catalog_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Priority         int                    `json:"priority" example:"5"`
	StrategyOverride *StrategyOverrideInput `json:"strategy_override"`
}

// UpdateCatalogLinkRequest represents a partial catalog link update
// @Description Request body for updating a catalog link; omitted fields are unchanged
type UpdateCatalogLinkRequest struct {
	Priority         *int                   `json:"priority"`
	StrategyOverride *StrategyOverrideInput `json:"strategy_override"`
	IsActive         *bool                  `json:"is_active"`
}

// GrantAccessRequest represents a request to grant channel access
// @Description Request body for granting a shop access to a channel
type GrantAccessRequest struct {
	Role        string                    `json:"role" binding:"required,oneof=owner manager viewer" example:"manager"`
	Permissions *channel.PermissionsPatch `json:"permissions"`
}

// ChannelResponse represents a sales channel in API responses
type ChannelResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	ChannelType   string                `json:"channel_type"`
	Priority      int                   `json:"priority"`
	Configuration channel.Configuration `json:"configuration"`
	IsActive      bool                  `json:"is_active"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func toChannelResponse(ch *channel.SalesChannel) ChannelResponse {
	return ChannelResponse{
		ID:            ch.ID.String(),
		Name:          ch.Name,
		Description:   ch.Description,
		ChannelType:   ch.ChannelType.String(),
		Priority:      ch.Priority,
		Configuration: ch.Configuration,
		IsActive:      ch.IsActive,
		CreatedAt:     ch.CreatedAt,
		UpdatedAt:     ch.UpdatedAt,
	}
}

// CatalogLinkResponse represents a catalog assignment in API responses
type CatalogLinkResponse struct {
	ID               string                    `json:"id"`
	ChannelID        string                    `json:"channel_id"`
	CatalogID        string                    `json:"catalog_id"`
	Priority         int                       `json:"priority"`
	StrategyOverride *channel.StrategyOverride `json:"strategy_override,omitempty"`
	IsActive         bool                      `json:"is_active"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

func toCatalogLinkResponse(link *channel.CatalogLink) CatalogLinkResponse {
	return CatalogLinkResponse{
		ID:               link.ID.String(),
		ChannelID:        link.ChannelID.String(),
		CatalogID:        link.CatalogID.String(),
		Priority:         link.Priority,
		StrategyOverride: link.StrategyOverride,
		IsActive:         link.IsActive,
		CreatedAt:        link.CreatedAt,
		UpdatedAt:        link.UpdatedAt,
	}
}

// EffectiveCatalogResponse represents one resolved catalog of a channel
type EffectiveCatalogResponse struct {
	CatalogID         string                  `json:"catalog_id"`
	Name              string                  `json:"name"`
	LinkID            string                  `json:"link_id"`
	Priority          int                     `json:"priority"`
	EffectiveStrategy catalog.PricingStrategy `json:"effective_strategy"`
}

func toEffectiveCatalogResponse(ec *channel.EffectiveCatalog) EffectiveCatalogResponse {
	return EffectiveCatalogResponse{
		CatalogID:         ec.Catalog.ID.String(),
		Name:              ec.Catalog.Name,
		LinkID:            ec.Link.ID.String(),
		Priority:          ec.Link.Priority,
		EffectiveStrategy: ec.Effective,
	}
}

// AccessResponse represents a channel access grant in API responses
type AccessResponse struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Create godoc
// @Summary      Create a sales channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body CreateChannelRequest true "Channel creation request"
// @Success      201 {object} dto.Response{data=ChannelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels [post]
func (h *ChannelHandler) Create(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := channelapp.CreateChannelRequest{
		Name:        req.Name,
		Description: req.Description,
		ChannelType: channel.ChannelType(req.ChannelType),
		Priority:    req.Priority,
	}
	if req.Configuration != nil {
		appReq.Configuration = *req.Configuration
	}

	created, err := h.channelService.CreateChannel(c.Request.Context(), shopID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toChannelResponse(created))
}

// List godoc
// @Summary      List sales channels
// @Description  Channels are ordered by priority, highest first
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Success      200 {object} dto.Response{data=[]ChannelResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels [get]
func (h *ChannelHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	channels, err := h.channelService.ListChannels(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ChannelResponse, 0, len(channels))
	for i := range channels {
		responses = append(responses, toChannelResponse(&channels[i]))
	}
	h.Success(c, responses)
}

// Get godoc
// @Summary      Get a sales channel
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Success      200 {object} dto.Response{data=ChannelResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	ch, err := h.channelService.GetChannel(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toChannelResponse(ch))
}

// Update godoc
// @Summary      Update a sales channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Param        request body UpdateChannelRequest true "Channel update request"
// @Success      200 {object} dto.Response{data=ChannelResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id} [put]
func (h *ChannelHandler) Update(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.channelService.UpdateChannel(c.Request.Context(), shopID, id, channelapp.UpdateChannelRequest{
		Name:          req.Name,
		Description:   req.Description,
		Priority:      req.Priority,
		Configuration: req.Configuration,
		IsActive:      req.IsActive,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toChannelResponse(updated))
}

// Delete godoc
// @Summary      Delete a sales channel
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id} [delete]
func (h *ChannelHandler) Delete(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	if err := h.channelService.DeleteChannel(c.Request.Context(), shopID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LinkCatalog godoc
// @Summary      Assign a catalog to a channel
// @Description  A (channel, catalog) pair may be linked only once
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Param        request body LinkCatalogRequest true "Catalog link request"
// @Success      201 {object} dto.Response{data=CatalogLinkResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/catalogs [post]
func (h *ChannelHandler) LinkCatalog(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	var req LinkCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	catalogID, err := uuid.Parse(req.CatalogID)
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	appReq := channelapp.LinkCatalogRequest{
		CatalogID: catalogID,
		Priority:  req.Priority,
	}
	if req.StrategyOverride != nil {
		appReq.StrategyOverride = req.StrategyOverride.toDomain()
	}

	link, err := h.channelService.LinkCatalog(c.Request.Context(), shopID, channelID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCatalogLinkResponse(link))
}

// UpdateCatalogLink godoc
// @Summary      Update a catalog link
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Param        linkId path string true "Catalog link ID"
// @Param        request body UpdateCatalogLinkRequest true "Catalog link update"
// @Success      200 {object} dto.Response{data=CatalogLinkResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/catalogs/{linkId} [put]
func (h *ChannelHandler) UpdateCatalogLink(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}
	linkID, err := uuid.Parse(c.Param("linkId"))
	if err != nil {
		h.BadRequest(c, "Invalid link ID format")
		return
	}

	var req UpdateCatalogLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := channelapp.UpdateCatalogLinkRequest{
		Priority: req.Priority,
		IsActive: req.IsActive,
	}
	if req.StrategyOverride != nil {
		appReq.StrategyOverride = req.StrategyOverride.toDomain()
	}

	link, err := h.channelService.UpdateCatalogLink(c.Request.Context(), shopID, channelID, linkID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCatalogLinkResponse(link))
}

// UnlinkCatalog godoc
// @Summary      Remove a catalog assignment
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Param        linkId path string true "Catalog link ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/catalogs/{linkId} [delete]
func (h *ChannelHandler) UnlinkCatalog(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}
	linkID, err := uuid.Parse(c.Param("linkId"))
	if err != nil {
		h.BadRequest(c, "Invalid link ID format")
		return
	}

	if err := h.channelService.UnlinkCatalog(c.Request.Context(), shopID, channelID, linkID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// EffectiveCatalogs godoc
// @Summary      Resolve a channel's effective catalogs
// @Description  Returns active catalogs in sync order with per-link overrides applied to their pricing strategies
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Success      200 {object} dto.Response{data=[]EffectiveCatalogResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/catalogs [get]
func (h *ChannelHandler) EffectiveCatalogs(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	catalogs, err := h.channelService.ResolveEffectiveCatalogs(c.Request.Context(), shopID, channelID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]EffectiveCatalogResponse, 0, len(catalogs))
	for i := range catalogs {
		responses = append(responses, toEffectiveCatalogResponse(&catalogs[i]))
	}
	h.Success(c, responses)
}

// GrantAccess godoc
// @Summary      Grant channel access
// @Description  Links the calling shop to the channel with a role; explicit permissions override role defaults field by field
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Param        request body GrantAccessRequest true "Access grant request"
// @Success      201 {object} dto.Response{data=AccessResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/access [post]
func (h *ChannelHandler) GrantAccess(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	var req GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	link, err := h.channelService.GrantAccess(c.Request.Context(), shopID, channelID, channel.Role(req.Role), req.Permissions)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, AccessResponse{
		ID:        link.ID.String(),
		ChannelID: link.ChannelID.String(),
		Role:      string(link.Role),
		IsActive:  link.IsActive,
		CreatedAt: link.CreatedAt,
	})
}

// Permissions godoc
// @Summary      Resolve effective channel permissions
// @Description  Explicit link permissions override the role defaults field by field
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Success      200 {object} dto.Response{data=channel.Permissions}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/access [get]
func (h *ChannelHandler) Permissions(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	perms, err := h.channelService.ResolvePermissions(c.Request.Context(), shopID, channelID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, perms)
}

// RevokeAccess godoc
// @Summary      Revoke channel access
// @Tags         channels
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Channel ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /channels/{id}/access [delete]
func (h *ChannelHandler) RevokeAccess(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid channel ID format")
		return
	}

	if err := h.channelService.RevokeAccess(c.Request.Context(), shopID, channelID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
