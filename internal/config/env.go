package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and $VAR patterns
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}|\$([A-Za-z0-9_]+)`)

// envVarName extracts VAR from a "${VAR}" or "$VAR" match
func envVarName(match string) string {
	if match[1] == '{' {
		return match[2 : len(match)-1]
	}
	return match[1:]
}

// ExpandEnv replaces ${VAR} and $VAR with environment variables.
// Unset variables expand to the empty string.
// Example: "Bearer ${MCPDIAG_TOKEN}" → "Bearer abc123..."
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarName(match))
	})
}

// UnsetEnv returns the variables referenced by s that are not set
func UnsetEnv(s string) []string {
	var missing []string
	for _, match := range envVarPattern.FindAllString(s, -1) {
		name := envVarName(match)
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ExpandEnvMap expands all values in a map
func ExpandEnvMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	expanded := make(map[string]string, len(m))
	for key, value := range m {
		expanded[key] = ExpandEnv(value)
	}
	return expanded
}
