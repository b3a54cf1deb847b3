package server

import (
	"time"

	"termchat/internal/auth"
	"termchat/internal/exec"
	"termchat/internal/files"
	appErr "termchat/pkg/errors"
	"termchat/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	auth   *auth.Service
	store  *files.Store
	runner *exec.Pool
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "healthy", "service": "termchat-server"})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, appErr.InvalidParams, "username and password are required")
		return
	}
	if err := h.auth.Register(req.Username, req.Password, req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"username": req.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, appErr.InvalidParams, "username and password are required")
		return
	}
	token, expiresAt, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"accessToken": token,
		"expiresAt":   expiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *handlers) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(c, appErr.InvalidParams, "multipart field 'file' is required")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErr.Wrapf(err, appErr.FileUploadFailed, "open upload failed"))
		return
	}
	defer src.Close()

	info, err := h.store.Save(fileHeader.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

func (h *handlers) download(c *gin.Context) {
	path, err := h.store.Path(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, c.Param("name"))
}

func (h *handlers) listFiles(c *gin.Context) {
	infos, err := h.store.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"files": infos})
}

type runRequest struct {
	Lang      string   `json:"lang" binding:"required"`
	File      string   `json:"file" binding:"required"`
	Args      []string `json:"args"`
	Stdin     string   `json:"stdin"`
	TimeoutMs int64    `json:"timeoutMs"`
}

func (h *handlers) run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, appErr.InvalidParams, "lang and file are required")
		return
	}

	source, err := h.store.Read(req.File)
	if err != nil {
		response.Error(c, err)
		return
	}

	execReq := exec.Request{
		LanguageID:     req.Lang,
		SourceFilename: req.File,
		SourceBytes:    source,
		Args:           req.Args,
	}
	if req.Stdin != "" {
		execReq.Stdin = []byte(req.Stdin)
	}
	if req.TimeoutMs > 0 {
		execReq.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	res, err := h.runner.TryExecute(c.Request.Context(), execReq)
	if err != nil && res.Status != exec.StatusInternalError {
		response.Error(c, err)
		return
	}
	// Internal errors still carry a result with a correlation id; expected
	// failures (compile/runtime/timeout) are plain results.
	response.Success(c, res)
}
