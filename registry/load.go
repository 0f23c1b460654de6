package registry

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rosrpc/config"
	"rosrpc/logging"
	"rosrpc/schema"
	"rosrpc/service"
)

// Open returns the registry backend selected by cfg. Registries that hold
// connections implement io.Closer.
func Open(cfg config.Registry) (Registry, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryRegistry(), nil
	case config.BackendEtcd:
		return NewEtcdRegistry(cfg)
	}
	return nil, fmt.Errorf("registry: unknown backend %q", cfg.Backend)
}

// Close closes reg if it holds resources.
func Close(reg Registry) error {
	if c, ok := reg.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Load walks root for definition files laid out by package,
//
//	root/<package>/msg/<Name>.msg
//	root/<package>/srv/<Name>.srv
//
// and registers each as "<package>/<Name>". It returns the number of
// definitions registered.
func Load(ctx context.Context, reg Registry, root string) (int, error) {
	logger := logging.Logger().Named("registry")
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		if _, _, ok := TypeNameForPath(path); !ok {
			return nil
		}
		if _, err := LoadFile(ctx, reg, path); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("registry: load %s: %w", root, err)
	}
	logger.Info("definitions loaded", zap.String("root", root), zap.Int("count", n))
	return n, nil
}

// LoadFile registers the single definition file at path, which must follow
// the <package>/msg or <package>/srv layout. It returns the type name.
func LoadFile(ctx context.Context, reg Registry, path string) (string, error) {
	typeName, kind, ok := TypeNameForPath(path)
	if !ok {
		return "", fmt.Errorf("registry: %s is not a <package>/msg/*.msg or <package>/srv/*.srv file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	logger := logging.Logger().Named("registry")
	switch kind {
	case KindMessage:
		s, err := schema.Parse(typeName, string(data))
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		if err := reg.RegisterMessage(ctx, s); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("loaded message", zap.String("type", typeName), zap.Stringer("md5", s.Token()))
	case KindService:
		d, err := service.Parse(typeName, string(data))
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		if err := reg.RegisterService(ctx, d); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("loaded service", zap.String("type", typeName), zap.Stringer("md5", d.Token()))
	}
	return typeName, nil
}

// TypeNameForPath maps root/pkg/msg/Name.msg to ("pkg/Name", KindMessage)
// and root/pkg/srv/Name.srv to ("pkg/Name", KindService). A path with no
// package directory above msg/ or srv/ does not map.
func TypeNameForPath(path string) (string, Kind, bool) {
	ext := filepath.Ext(path)
	var kind Kind
	switch ext {
	case ".msg":
		kind = KindMessage
	case ".srv":
		kind = KindService
	default:
		return "", "", false
	}
	dir := filepath.Dir(path)
	if filepath.Base(dir) != string(kind) {
		return "", "", false
	}
	pkg := filepath.Base(filepath.Dir(dir))
	if pkg == "." || pkg == string(filepath.Separator) {
		return "", "", false
	}
	name := strings.TrimSuffix(filepath.Base(path), ext)
	return pkg + "/" + name, kind, true
}
