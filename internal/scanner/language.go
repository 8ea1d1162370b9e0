package scanner

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps file extensions to language tags. Detection is
// purely extension based; unknown extensions are scanned for metadata only
// and never reach a parser.
var extensionLanguages = map[string]string{
	".go":      "go",
	".py":      "python",
	".pyw":     "python",
	".js":      "javascript",
	".jsx":     "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".ts":      "typescript",
	".tsx":     "typescript",
	".java":    "java",
	".kt":      "kotlin",
	".kts":     "kotlin",
	".cs":      "csharp",
	".rb":      "ruby",
	".php":     "php",
	".rs":      "rust",
	".c":       "c",
	".h":       "c",
	".cpp":     "cpp",
	".cc":      "cpp",
	".cxx":     "cpp",
	".hpp":     "cpp",
	".hh":      "cpp",
	".m":       "objc",
	".mm":      "objc",
	".swift":   "swift",
	".scala":   "scala",
	".groovy":  "groovy",
	".dart":    "dart",
	".lua":     "lua",
	".r":       "r",
	".pl":      "perl",
	".pm":      "perl",
	".sh":      "shell",
	".bash":    "shell",
	".ps1":     "powershell",
	".sql":     "sql",
	".html":    "html",
	".css":     "css",
	".scss":    "css",
	".vue":     "vue",
	".svelte":  "svelte",
	".ex":      "elixir",
	".exs":     "elixir",
	".erl":     "erlang",
	".hs":      "haskell",
	".clj":     "clojure",
	".fs":      "fsharp",
	".vb":      "vbnet",
}

// DetectLanguage returns the language tag for a path, or "" when the
// extension is not in the table.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionLanguages[ext]
}
