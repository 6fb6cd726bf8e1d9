package indexer

import "strings"

var languageByExtension = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".java": "java",
}

// DetectLanguage maps a file path to a supported language name, or ""
// for files the index skips.
func DetectLanguage(path string) string {
	for ext, lang := range languageByExtension {
		if strings.HasSuffix(path, ext) && len(path) > len(ext) {
			return lang
		}
	}
	return ""
}
