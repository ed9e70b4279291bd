package paginate

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"rtflow/config"
	"rtflow/content"
	"rtflow/state"
)

// buildPagePath returns output file path of a single page. Name comes from
// page name template when one is configured, source base name and link name
// are used otherwise. Source directory structure is preserved on the output
// unless requested otherwise.
func buildPagePath(src *content.Source, srcPath, dst, link string, index int, env *state.LocalEnv) string {
	outDir := determineOutputDir(srcPath, dst, env)
	ext := env.Cfg.Render.Surface.Ext()
	defaultFile := cleanPathSegment(content.BaseName(srcPath)+"-"+link, env) + ext

	if env.Cfg.Render.PageNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName, err := expandTemplate(src, config.PageNameTemplateFieldName, env.Cfg.Render.PageNameTemplate, env.Cfg.Render.Surface, link, index)
	if err != nil {
		env.Log.Warn("Unable to prepare page file name", zap.String("link", link), zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}
	expandedName = filepath.FromSlash(expandedName)
	if strings.TrimSpace(expandedName) == "" {
		return filepath.Join(outDir, defaultFile)
	}
	return assemblePathWithSubdirs(outDir, expandedName, ext, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName, ext string, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)
	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + ext
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}
	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

// splitAndCleanPath splits path into its segments, dropping empty ones and
// ones pointing up or to the current directory so expanded names always stay
// under output directory.
func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Render.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
