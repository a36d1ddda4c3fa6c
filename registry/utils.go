package registry

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"
)

type entityKind int8

const (
	kindMessage entityKind = iota + 1
	kindEnum
)

// protoFileEntity is what we remember about a parsed file between passes.
type protoFileEntity struct {
	pkg     string
	syntax  string
	imports []string
}

// getAllProtoInfo uses DFS to fetch all the files from all directories passed and stores relevant proto files.
// Files parsed by an earlier load are not returned again.
func (r *Registry) getAllProtoInfo(protoFile string) ([]string, error) {
	visited := make(map[string]struct{}) // to make sure we don't end up in a loop
	result := make([]string, 0)

	var dfs func(protoFile string) error
	dfs = func(protoFile string) error {
		if _, ok := visited[protoFile]; ok {
			return nil
		}
		visited[protoFile] = struct{}{}
		if _, loaded := r.protoEntities[protoFile]; loaded {
			return nil
		}
		result = append(result, protoFile)
		entity := &protoFileEntity{
			syntax:  "proto2",
			imports: make([]string, 0),
		}

		protoBytes, err := os.ReadFile(protoFile)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		parsedBody, err := protoparser.Parse(bytes.NewBuffer(protoBytes))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", protoFile, err)
		}
		r.parsedProtoBody[protoFile] = parsedBody
		if parsedBody.Syntax != nil {
			entity.syntax = strings.Trim(parsedBody.Syntax.ProtobufVersion, `"'`)
		}

		for _, body := range parsedBody.ProtoBody {
			switch b := body.(type) {
			case *protoparserparser.Package:
				entity.pkg = b.Name
			case *protoparserparser.Import: // resolve relation for each imports
				importPath := strings.Trim(b.Location, `"'`)
				// well known types are not loaded from disk
				if strings.HasPrefix(importPath, "google/protobuf/") {
					continue
				}
				fullImportPath, err := r.findIfProtoExists(importPath)
				if err != nil {
					return err
				}
				entity.imports = append(entity.imports, fullImportPath)
				if err = dfs(fullImportPath); err != nil {
					return err
				}
			}
		}
		r.protoEntities[protoFile] = entity
		r.logger.Debug().Str("file", protoFile).Str("package", entity.pkg).Str("syntax", entity.syntax).Msg("parsed proto file")
		return nil
	}
	// run dfs on the input proto path
	protoPath, err := r.findIfProtoExists(protoFile)
	if err != nil {
		return nil, err
	}
	if err := dfs(protoPath); err != nil {
		r.forget(result)
		return nil, err
	}
	return result, nil
}

func (r *Registry) findIfProtoExists(protoPath string) (string, error) {
	var (
		fullPath      string
		fullProtoPath string
		err           error
	)
	protoPath = strings.Trim(protoPath, `"`)
	if !strings.HasSuffix(protoPath, ".proto") {
		return "", fmt.Errorf("is not a .proto file %s", protoPath)
	}
	dirs := r.ProtoDirectories
	if len(dirs) == 0 || path.IsAbs(protoPath) {
		dirs = []string{""}
	}
	for _, dir := range dirs {
		fullPath = path.Join(dir, protoPath)
		// Check if the path exists
		if _, err = os.Stat(fullPath); err == nil {
			fullProtoPath = fullPath
			break
		}
	}
	if fullProtoPath == "" {
		return "", fmt.Errorf("path does not exist: %s %w", protoPath, err)
	}
	return fullProtoPath, nil
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file,nested or imported entities.If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]entityKind) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced to other packages via packageName
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]entityKind) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]entityKind) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve fully qualified type name: %s", typeName)
}

// mapEntryName follows protoc: map field "tag_counts" gets entry type "TagCountsEntry".
func mapEntryName(fieldName string) string {
	var sb strings.Builder
	upper := true
	for _, c := range fieldName {
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		sb.WriteRune(c)
	}
	sb.WriteString("Entry")
	return sb.String()
}

// unquote strips the quotes of a string literal constant.
func unquote(constant string) (string, error) {
	if len(constant) >= 2 && constant[0] == '\'' && constant[len(constant)-1] == '\'' {
		constant = `"` + strings.ReplaceAll(constant[1:len(constant)-1], `"`, `\"`) + `"`
	}
	if len(constant) >= 2 && constant[0] == '"' {
		return strconv.Unquote(constant)
	}
	return constant, nil
}
