package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS        = "" // e.g. "viewer.example.com"
	MYSQL_DSN          = "" // MySQL will be used if this is set
	SQLITE_FILE        = "" // SQLite will be used if MYSQL_DSN is not configured and this is set
	BIND_ADDRESS       = "0.0.0.0:8080"
	BASE_URL           = ""     // Public base URL used in share/revocation links. Falls back to the request Host header
	MAIL_SERVER        = ""     // Mail relay endpoint. Share/revocation emails are skipped if empty
	TMP_DIR            = "/tmp" // Local scratch space for S3-backed buckets
	DEFAULT_BUCKET_DIR = ""     // Used for creating the initial disk bucket
	SESSION_KEY        = "cad-viewer-session-key"
	DEBUG_MODE         = true

	// Share password brute-force window
	PASSWORD_ATTEMPT_LIMIT  = 10
	PASSWORD_ATTEMPT_WINDOW = 900 // seconds
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("BASE_URL", &BASE_URL)
	readEnvString("MAIL_SERVER", &MAIL_SERVER)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvString("DEFAULT_BUCKET_DIR", &DEFAULT_BUCKET_DIR)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvInt("PASSWORD_ATTEMPT_LIMIT", &PASSWORD_ATTEMPT_LIMIT)
	readEnvInt("PASSWORD_ATTEMPT_WINDOW", &PASSWORD_ATTEMPT_WINDOW)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
