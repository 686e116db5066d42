package logx

import (
	"fmt"
	"log"
	"os"
	"time"
)

const (
	Reset = "\033[0m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

var levelColor = map[string]string{
	"DEBUG": Cyan,
	"INFO":  Blue,
	"WARN":  Yellow,
	"ERROR": Red,
}

// colores por componente
var componentColor = map[string]string{
	"Api":     Cyan,
	"Agent":   Blue,
	"Predict": Magenta,
	"Stats":   Green,
	"LLM":     Yellow,
	"HTTP":    Blue,
	"Config":  Magenta,
	"App":     Green,
	"Mock":    Cyan,
}

func useColor() bool {
	return os.Getenv("APP_ENV") == "local" || os.Getenv("APP_ENV") == "dev"
}

// --- Public API ---

func Debug(comp, msg string, args ...any) {
	logGeneric("DEBUG", comp, msg, args...)
}

func Info(comp, msg string, args ...any) {
	logGeneric("INFO", comp, msg, args...)
}

func Warn(comp, msg string, args ...any) {
	logGeneric("WARN", comp, msg, args...)
}

func Error(comp, msg string, args ...any) {
	logGeneric("ERROR", comp, msg, args...)
}

// --- Core ---

func logGeneric(level, comp, msg string, args ...any) {
	full := fmt.Sprintf(msg, args...)

	if useColor() {
		lc := levelColor[level]
		cc := componentColor[comp]
		log.Printf("%s[%s]%s %s[%s]%s %s",
			lc, level, Reset,
			cc, comp, Reset,
			full,
		)
	} else {
		log.Printf("[%s] [%s] %s", level, comp, full)
	}
}

// L logs with a request id so one chat's lines can be grepped together.
func L(id, comp, msg string, args ...any) {
	prefix := fmt.Sprintf("[%s][%s][%s] ",
		time.Now().Format(time.RFC3339),
		comp,
		id,
	)
	log.Printf(prefix+msg, args...)
}
