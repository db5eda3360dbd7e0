// Package handler wires the REST API: parent auth, garden and child
// management, feed generation, DMs and simulation sessions.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/auth"
	"garden-server/internal/models"
	"garden-server/internal/service"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	auth        *auth.Service
	gardens     *service.GardenService
	simulations *service.SimulationService
	logger      *zap.Logger
}

func New(authSvc *auth.Service, gardens *service.GardenService, simulations *service.SimulationService, logger *zap.Logger) *Handler {
	return &Handler{
		auth:        authSvc,
		gardens:     gardens,
		simulations: simulations,
		logger:      logger.Named("Handler"),
	}
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	api := router.Group("/api", h.auth.Middleware())
	{
		api.POST("/gardens", h.createGarden)
		api.GET("/gardens", h.listGardens)
		api.GET("/gardens/:id", h.getGarden)
		api.GET("/gardens/:id/children", h.listChildren)
		api.POST("/gardens/:id/children", h.createChild)
		api.GET("/gardens/:id/profiles", h.listProfiles)

		api.PUT("/children/:id/config", h.updateChildConfig)
		api.POST("/children/:id/feed/generate", h.generateFeed)
		api.GET("/children/:id/feed", h.listFeed)
		api.POST("/children/:id/messages", h.sendMessage)
		api.GET("/children/:id/conversations/:profileID", h.listConversation)
		api.GET("/children/:id/scenarios", h.listScenarios)
		api.GET("/children/:id/sessions", h.listSessions)
		api.POST("/children/:id/simulations", h.startSimulation)

		api.GET("/simulations/:id", h.getSession)
		api.POST("/simulations/:id/turn", h.simulationTurn)
		api.POST("/simulations/:id/evaluate", h.evaluateSession)
	}
}

// --- auth ---

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	parent, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, parent)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token  string         `json:"token"`
	Parent *models.Parent `json:"parent"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	token, parent, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, Parent: parent})
}

// --- gardens ---

type createGardenRequest struct {
	Name string `json:"name"`
}

type createGardenResponse struct {
	Garden *models.Garden `json:"garden"`
	Child  *models.Child  `json:"child"`
}

func (h *Handler) createGarden(c *gin.Context) {
	var req createGardenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	garden, child, err := h.gardens.CreateGarden(c.Request.Context(), auth.ParentID(c), req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createGardenResponse{Garden: garden, Child: child})
}

func (h *Handler) listGardens(c *gin.Context) {
	gardens, err := h.gardens.ListGardens(c.Request.Context(), auth.ParentID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gardens)
}

func (h *Handler) getGarden(c *gin.Context) {
	garden, err := h.gardens.GetGarden(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, garden)
}

func (h *Handler) listChildren(c *gin.Context) {
	children, err := h.gardens.ListChildren(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func (h *Handler) createChild(c *gin.Context) {
	var cfg models.ChildConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	child, err := h.gardens.CreateChild(c.Request.Context(), auth.ParentID(c), c.Param("id"), cfg)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, child)
}

func (h *Handler) listProfiles(c *gin.Context) {
	profiles, err := h.gardens.ListProfiles(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// --- children ---

func (h *Handler) updateChildConfig(c *gin.Context) {
	var cfg models.ChildConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	if err := h.gardens.UpdateChildConfig(c.Request.Context(), auth.ParentID(c), c.Param("id"), cfg); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- feed ---

type backendRequest struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
}

func (r backendRequest) parse() (ai.Backend, string, error) {
	if r.Backend == "" {
		return ai.BackendOpenAI, r.Model, nil
	}
	backend, err := ai.ParseBackend(r.Backend)
	return backend, r.Model, err
}

func (h *Handler) generateFeed(c *gin.Context) {
	var req backendRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	backend, model, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: err.Error()})
		return
	}
	posts, err := h.gardens.GenerateFeed(c.Request.Context(), auth.ParentID(c), c.Param("id"), backend, model)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) listFeed(c *gin.Context) {
	posts, err := h.gardens.ListFeed(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// --- messages ---

type sendMessageRequest struct {
	PartnerProfileID string `json:"partner_profile_id" binding:"required"`
	Text             string `json:"text" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	msg, err := h.gardens.SendChildMessage(c.Request.Context(), auth.ParentID(c), c.Param("id"), req.PartnerProfileID, req.Text)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listConversation(c *gin.Context) {
	msgs, err := h.gardens.ListConversation(c.Request.Context(), auth.ParentID(c), c.Param("id"), c.Param("profileID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// --- simulations ---

func (h *Handler) listScenarios(c *gin.Context) {
	defs, err := h.simulations.ScenariosForChild(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.simulations.ListSessions(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type startSimulationRequest struct {
	ScenarioID       string `json:"scenario_id" binding:"required"`
	PartnerProfileID string `json:"partner_profile_id"`
	backendRequest
}

type startSimulationResponse struct {
	Session *models.SimulationSession `json:"session"`
	Message *models.DirectedMessage   `json:"message"`
}

func (h *Handler) startSimulation(c *gin.Context) {
	var req startSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	backend, model, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: err.Error()})
		return
	}
	session, msg, err := h.simulations.Start(c.Request.Context(), auth.ParentID(c), c.Param("id"), req.ScenarioID, req.PartnerProfileID, backend, model)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startSimulationResponse{Session: session, Message: msg})
}

func (h *Handler) getSession(c *gin.Context) {
	session, err := h.simulations.GetSession(c.Request.Context(), auth.ParentID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type turnResponse struct {
	Session *models.SimulationSession `json:"session"`
	Message *models.DirectedMessage   `json:"message"`
}

func (h *Handler) simulationTurn(c *gin.Context) {
	var req backendRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	backend, model, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: err.Error()})
		return
	}
	session, msg, err := h.simulations.Turn(c.Request.Context(), auth.ParentID(c), c.Param("id"), backend, model)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnResponse{Session: session, Message: msg})
}

type evaluationResponse struct {
	Label   models.OutcomeLabel `json:"label"`
	Summary string              `json:"summary"`
}

func (h *Handler) evaluateSession(c *gin.Context) {
	var req backendRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, apiError{Message: "invalid request body"})
		return
	}
	backend, model, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Message: err.Error()})
		return
	}
	label, summary, err := h.simulations.Evaluate(c.Request.Context(), auth.ParentID(c), c.Param("id"), backend, model)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluationResponse{Label: label, Summary: summary})
}
