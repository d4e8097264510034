package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          string
	ModelPath     string
	MetadataPath  string
	Runtime       string // "tflite" or "onnx"
	ArenaKB       int
	ONNXSharedLib string
	MQTTBroker    string // empty disables publishing
	MQTTTopic     string
	DeviceID      string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		ModelPath:     getEnv("MODEL_PATH", "./models/shape_model.tflite"),
		MetadataPath:  getEnv("MODEL_METADATA_PATH", "./models/shape_model_metadata.json"),
		Runtime:       getEnv("RUNTIME", "tflite"),
		ArenaKB:       getEnvInt("ARENA_KB", 300),
		ONNXSharedLib: getEnv("ONNX_SHARED_LIB", ""),
		MQTTBroker:    getEnv("MQTT_BROKER", ""),
		MQTTTopic:     getEnv("MQTT_TOPIC", "shapecam/results"),
		DeviceID:      getEnv("DEVICE_ID", "shapecam-0"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
