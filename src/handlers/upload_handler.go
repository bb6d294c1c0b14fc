package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/username/tradevault/backend/src/config"
	"github.com/username/tradevault/backend/src/database"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/security/validation"
	"github.com/username/tradevault/backend/src/services"
	"github.com/username/tradevault/backend/src/utils"
)

type UploadHandler struct {
	importService *services.GenericImportService
	tradeService  *services.TradeService
}

func NewUploadHandler(importService *services.GenericImportService, tradeService *services.TradeService) *UploadHandler {
	return &UploadHandler{
		importService: importService,
		tradeService:  tradeService,
	}
}

// HandleUpload receives a broker trade history file for one account and runs
// the import. The import core reports problems as a message string; a
// non-empty message is returned to the client verbatim with a 400.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	accountNumber, err := strconv.ParseInt(r.PathValue("accountNumber"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid account number", http.StatusBadRequest)
		return
	}

	account, err := models.GetAccountByNumber(database.DB, userID, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("account %d not found", accountNumber), http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load account for upload", "userID", userID, "accountNumber", accountNumber, "error", err)
		utils.SendJSONError(w, "Failed to load account", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateImportFileExtension(fileHeader.Filename, account.TradePlatform); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("File content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	importID := uuid.NewString()
	logger.L.Info("Processing trade import",
		"importID", importID,
		"userID", userID,
		"accountNumber", account.AccountNumber,
		"platform", string(account.TradePlatform),
		"filename", fileHeader.Filename)

	message := h.importService.ImportTrades(file, account)
	if message != "" {
		logger.L.Warn("Trade import rejected", "importID", importID, "accountNumber", account.AccountNumber, "message", message)
		utils.SendJSONError(w, message, http.StatusBadRequest)
		return
	}

	h.tradeService.InvalidateAccountCache(account.ID)
	logger.L.Info("Trade import completed", "importID", importID, "accountNumber", account.AccountNumber)
	utils.SendJSON(w, map[string]string{"message": "import completed", "importId": importID}, http.StatusOK)
}
