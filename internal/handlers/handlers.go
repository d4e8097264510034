package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"

	"shapecam/internal/classifier"
	"shapecam/internal/emitter"
	"shapecam/internal/frame"
	"shapecam/internal/inference"
	"shapecam/internal/preprocess"
)

const previewWidth = 320

// maxUploadBytes caps the multipart form size for one frame (8MB).
const maxUploadBytes = 8 << 20

type Handler struct {
	classifier *classifier.Classifier
	emitter    *emitter.MQTTEmitter // nil when publishing is disabled
	log        *logrus.Logger

	// inFlight enforces single-flight access to the core: a request
	// arriving while one is being served is rejected, never queued.
	inFlight sync.Mutex

	previewMu sync.Mutex
	lastFrame []byte
}

func NewHandler(c *classifier.Classifier, e *emitter.MQTTEmitter, log *logrus.Logger) *Handler {
	return &Handler{
		classifier: c,
		emitter:    e,
		log:        log,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "healthy"}
	if h.emitter != nil {
		connected, published, errs := h.emitter.Stats()
		payload["mqtt"] = map[string]any{
			"connected": connected,
			"published": published,
			"errors":    errs,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

// Classify accepts one frame as a multipart upload under the "image" field
// and returns the classification result. A failed classification is a tagged
// error payload, never a low-confidence success.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "use POST")
		return
	}

	if !h.inFlight.TryLock() {
		writeError(w, http.StatusServiceUnavailable, "busy", "a classification is already in flight")
		return
	}
	defer h.inFlight.Unlock()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "no image file provided, use form field 'image'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	f := frame.CompressedFrame{Data: data, Format: frameFormat(header.Filename)}

	result, err := h.classifier.Classify(f)
	if err != nil {
		h.log.WithError(err).Warn("classification failed")
		switch {
		case errors.Is(err, preprocess.ErrDecode):
			writeError(w, http.StatusBadRequest, "decode_error", err.Error())
		case errors.Is(err, preprocess.ErrAllocation):
			writeError(w, http.StatusRequestEntityTooLarge, "allocation_error", err.Error())
		case errors.Is(err, inference.ErrNotReady):
			writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "inference_error", err.Error())
		}
		return
	}

	h.previewMu.Lock()
	h.lastFrame = data
	h.previewMu.Unlock()

	h.log.WithFields(logrus.Fields{
		"request_id": result.RequestID,
		"label":      result.Label,
		"confidence": result.Confidence,
		"elapsed_ms": result.InferenceTimeMs,
	}).Info("frame classified")

	if h.emitter != nil {
		if err := h.emitter.Publish(result); err != nil {
			h.log.WithError(err).Warn("result publish failed")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// Preview returns the most recently classified frame downscaled to a small
// JPEG, mirroring the device's snapshot page.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	h.previewMu.Lock()
	data := h.lastFrame
	h.previewMu.Unlock()

	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "no_frame", "no frame classified yet")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decode_error", "stored frame is not decodable")
		return
	}

	thumb := resize.Resize(previewWidth, 0, img, resize.Lanczos3)
	w.Header().Set("Content-Type", "image/jpeg")
	if err := jpeg.Encode(w, thumb, &jpeg.Options{Quality: 80}); err != nil {
		h.log.WithError(err).Error("preview encode failed")
	}
}

func frameFormat(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		return "png"
	}
	return "jpeg"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, tag, message string) {
	writeJSON(w, status, errorResponse{Error: tag, Message: message})
}
