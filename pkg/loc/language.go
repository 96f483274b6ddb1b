package loc

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a source language the code counter can parse.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangBash       Language = "bash"
	LangUnknown    Language = "unknown"
)

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".rs":
		return LangRust
	case ".py", ".pyw", ".pyi":
		return LangPython
	case ".ts":
		return LangTypeScript
	case ".tsx", ".jsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".java":
		return LangJava
	case ".c", ".h":
		return LangC
	case ".cpp", ".cc", ".cxx", ".hpp", ".hxx":
		return LangCPP
	case ".cs":
		return LangCSharp
	case ".rb":
		return LangRuby
	case ".php":
		return LangPHP
	case ".sh", ".bash":
		return LangBash
	default:
		return LangUnknown
	}
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangJava:
		return java.GetLanguage()
	case LangC:
		return c.GetLanguage()
	case LangCPP:
		return cpp.GetLanguage()
	case LangCSharp:
		return csharp.GetLanguage()
	case LangRuby:
		return ruby.GetLanguage()
	case LangPHP:
		return php.GetLanguage()
	case LangBash:
		return bash.GetLanguage()
	default:
		return nil
	}
}

// commentTypes lists the node types each grammar uses for comments.
func commentTypes(lang Language) map[string]bool {
	switch lang {
	case LangJava, LangRust:
		return map[string]bool{"line_comment": true, "block_comment": true}
	default:
		return map[string]bool{"comment": true}
	}
}
