package main

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"shapecam/internal/classifier"
	"shapecam/internal/config"
	"shapecam/internal/emitter"
	"shapecam/internal/handlers"
	"shapecam/internal/inference"
)

func initLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}

func newRuntime(cfg *config.Config) inference.Runtime {
	if cfg.Runtime == "onnx" {
		return inference.NewONNXRuntime(cfg.ONNXSharedLib)
	}
	return inference.NewTFLiteRuntime()
}

func main() {
	log := initLogger()
	cfg := config.Load()

	log.WithFields(logrus.Fields{
		"model":    cfg.ModelPath,
		"runtime":  cfg.Runtime,
		"arena_kb": cfg.ArenaKB,
	}).Info("initializing inference session")

	// Initialization failures are fatal: the device refuses to serve
	// rather than run with a half-initialized session.
	session := inference.NewSession(newRuntime(cfg))
	if err := session.Initialize(cfg.ModelPath, cfg.MetadataPath, cfg.ArenaKB*1024); err != nil {
		log.Fatalf("Failed to initialize inference session: %v", err)
	}
	defer session.Close()

	clf, err := classifier.New(session)
	if err != nil {
		log.Fatalf("Label table validation failed: %v", err)
	}

	var em *emitter.MQTTEmitter
	if cfg.MQTTBroker != "" {
		em = emitter.NewMQTT(cfg.MQTTBroker, cfg.DeviceID, cfg.MQTTTopic, log)
		if err := em.Connect(); err != nil {
			// Publishing is best-effort; the client auto-reconnects.
			log.WithError(err).Warn("mqtt broker unreachable at startup")
		}
		defer em.Disconnect()
	}

	handler := handlers.NewHandler(clf, em, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/classify", handler.Classify)
	mux.HandleFunc("/preview", handler.Preview)

	srv := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	log.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"classes": session.Classes(),
	}).Info("server starting")

	if err := http.ListenAndServe(":"+cfg.Port, srv); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
