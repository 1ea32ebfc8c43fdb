package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wms-platform/execution-service/internal/application"
	"github.com/wms-platform/execution-service/internal/infrastructure/speech"
	"github.com/wms-platform/execution-service/pkg/errors"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/middleware"
)

// ExecutionHandlers serves the execution REST and voice routes
type ExecutionHandlers struct {
	service  *application.ExecutionService
	logger   *logging.Logger
	speech   speech.Config
	upgrader websocket.Upgrader
}

func NewExecutionHandlers(service *application.ExecutionService, speechConfig speech.Config, logger *logging.Logger) *ExecutionHandlers {
	return &ExecutionHandlers{
		service: service,
		logger:  logger,
		speech:  speechConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// terminals connect from the same origins the REST API allows
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the routes under /api/v1
func (h *ExecutionHandlers) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")

	executions := api.Group("/executions")
	{
		executions.POST("", h.StartExecution)
		executions.GET("/:executionId", h.GetExecution)
		executions.POST("/:executionId/input", h.SubmitInput)
		executions.POST("/:executionId/utterances", h.SubmitUtterance)
		executions.POST("/:executionId/commit/retry", h.RetryCommit)
		executions.POST("/:executionId/rows/next", h.NextRow)
		executions.POST("/:executionId/rows/previous", h.PreviousRow)
		executions.POST("/:executionId/cancel", h.CancelExecution)
		executions.POST("/:executionId/voice/start", h.StartVoice)
		executions.POST("/:executionId/voice/stop", h.StopVoice)
		executions.POST("/:executionId/voice/pause", h.PauseVoice)
		executions.POST("/:executionId/voice/resume", h.ResumeVoice)
		executions.GET("/:executionId/voice/ws", h.VoiceSocket)
	}

	api.GET("/lists/:listId/progress", h.GetListProgress)
}

type startExecutionRequest struct {
	ListID    string `json:"listId" binding:"required,list_id"`
	Operation string `json:"operation" binding:"omitempty,operation"`
	UserName  string `json:"userName" binding:"required,max=64"`
}

type submitInputRequest struct {
	Kind  string `json:"kind" binding:"required,input_kind"`
	Value string `json:"value" binding:"max=256"`
}

type submitUtteranceRequest struct {
	Transcript string  `json:"transcript" binding:"required,max=512"`
	Confidence float64 `json:"confidence" binding:"gte=0,lte=1"`
}

func (h *ExecutionHandlers) StartExecution(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req startExecutionRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"list.id":   req.ListID,
		"operation": req.Operation,
	})

	execution, err := h.service.StartExecution(c.Request.Context(), application.StartExecutionCommand{
		ListID:    req.ListID,
		Operation: req.Operation,
		UserName:  req.UserName,
	})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	c.JSON(http.StatusCreated, execution)
}

func (h *ExecutionHandlers) GetExecution(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	executionID := h.executionID(c)

	execution, err := h.service.GetExecution(c.Request.Context(), application.GetExecutionQuery{ExecutionID: executionID})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	c.JSON(http.StatusOK, execution)
}

func (h *ExecutionHandlers) SubmitInput(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	executionID := h.executionID(c)

	var req submitInputRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	execution, err := h.service.SubmitInput(c.Request.Context(), application.SubmitInputCommand{
		ExecutionID: executionID,
		Kind:        req.Kind,
		Value:       req.Value,
	})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{"execution.step": execution.CurrentStep})
	c.JSON(http.StatusOK, execution)
}

func (h *ExecutionHandlers) SubmitUtterance(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	executionID := h.executionID(c)

	var req submitUtteranceRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.SubmitUtterance(c.Request.Context(), application.SubmitUtteranceCommand{
		ExecutionID: executionID,
		Transcript:  req.Transcript,
		Confidence:  req.Confidence,
	})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"voice.command": result.Interpretation.Command,
		"voice.action":  result.Action,
	})
	c.JSON(http.StatusOK, result)
}

func (h *ExecutionHandlers) RetryCommit(c *gin.Context) {
	h.executionAction(c, h.service.RetryCommit)
}

func (h *ExecutionHandlers) NextRow(c *gin.Context) {
	h.executionAction(c, h.service.NextRow)
}

func (h *ExecutionHandlers) PreviousRow(c *gin.Context) {
	h.executionAction(c, h.service.PreviousRow)
}

func (h *ExecutionHandlers) CancelExecution(c *gin.Context) {
	h.executionAction(c, h.service.CancelExecution)
}

func (h *ExecutionHandlers) StartVoice(c *gin.Context) {
	h.executionAction(c, h.service.StartVoice)
}

func (h *ExecutionHandlers) StopVoice(c *gin.Context) {
	h.executionAction(c, h.service.StopVoice)
}

func (h *ExecutionHandlers) PauseVoice(c *gin.Context) {
	h.executionAction(c, h.service.PauseVoice)
}

func (h *ExecutionHandlers) ResumeVoice(c *gin.Context) {
	h.executionAction(c, h.service.ResumeVoice)
}

// VoiceSocket upgrades to a websocket and uses the terminal as the speech
// backend of the execution until the socket closes.
func (h *ExecutionHandlers) VoiceSocket(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	executionID := h.executionID(c)
	ctx := c.Request.Context()

	if _, err := h.service.GetExecution(ctx, application.GetExecutionQuery{ExecutionID: executionID}); err != nil {
		h.respondError(c, responder, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WithError(err).Warn("Websocket upgrade failed", "executionId", executionID)
		return
	}

	backend := speech.NewWebSocketBackend(conn, h.speech, h.logger.WithExecution(executionID, ""))
	session, err := h.service.AttachVoice(ctx, executionID, backend)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to attach voice session", "executionId", executionID)
		_ = backend.Close()
		return
	}
	defer h.service.DetachVoice(executionID, session)

	// hang up once the execution ends the session
	served := make(chan struct{})
	defer close(served)
	go func() {
		select {
		case <-session.Done():
			_ = backend.Close()
		case <-served:
		}
	}()

	h.logger.Info("Speech terminal connected", "executionId", executionID)
	if err := backend.Serve(ctx); err != nil {
		h.logger.WithError(err).Warn("Speech terminal connection lost", "executionId", executionID)
		return
	}
	h.logger.Info("Speech terminal disconnected", "executionId", executionID)
}

func (h *ExecutionHandlers) GetListProgress(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	listID := c.Param("listId")
	middleware.AddSpanAttributes(c, map[string]interface{}{"list.id": listID})

	progress, err := h.service.GetListProgress(c.Request.Context(), application.GetListProgressQuery{ListID: listID})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

type executionFunc func(ctx context.Context, cmd application.ExecutionCommand) (*application.ExecutionDTO, error)

func (h *ExecutionHandlers) executionAction(c *gin.Context, fn executionFunc) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	executionID := h.executionID(c)

	execution, err := fn(c.Request.Context(), application.ExecutionCommand{ExecutionID: executionID})
	if err != nil {
		h.respondError(c, responder, err)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{"execution.step": execution.CurrentStep})
	c.JSON(http.StatusOK, execution)
}

func (h *ExecutionHandlers) executionID(c *gin.Context) string {
	executionID := c.Param("executionId")
	middleware.AddSpanAttributes(c, map[string]interface{}{"execution.id": executionID})
	return executionID
}

func (h *ExecutionHandlers) respondError(c *gin.Context, responder *middleware.ErrorResponder, err error) {
	middleware.SetSpanError(c, err)
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}
