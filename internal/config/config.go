package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/log"
)

// EnvFile overrides the preferences file location.
const EnvFile = "DAINTREE_CFG_FILE"

// Prefs is the YAML document.
type Prefs struct {
	Regions []string        `yaml:"regions"`
	Roles   []internal.Role `yaml:"roles"`
}

// File is a Prefs document bound to a path. All methods are safe for
// concurrent use.
type File struct {
	Path string

	mu    sync.Mutex
	prefs Prefs
}

// Path returns the preferences file location: DAINTREE_CFG_FILE if set,
// otherwise daintree.yaml under os.UserConfigDir.
func Path() (string, error) {
	if p := os.Getenv(EnvFile); p != "" {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return "", fmt.Errorf("%s points to a directory: %s", EnvFile, p)
		}
		log.Debugf("using preferences from %s: %s", EnvFile, p)
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daintree.yaml"), nil
}

// Open resolves the default path and loads it.
func Open() (*File, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	f := &File{Path: p}
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load (re)reads the file. A missing file yields empty preferences.
func (f *File) Load() error {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		f.mu.Lock()
		f.prefs = Prefs{}
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var p Prefs
	if err := yaml.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.Path, err)
	}
	f.mu.Lock()
	f.prefs = p
	f.mu.Unlock()
	return nil
}

func (f *File) save() error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(f.prefs)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o644)
}

// Prefs returns a copy of the loaded document.
func (f *File) Prefs() Prefs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Prefs{
		Regions: slices.Clone(f.prefs.Regions),
		Roles:   slices.Clone(f.prefs.Roles),
	}
}

// Regions returns the enabled regions.
func (f *File) Regions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.prefs.Regions)
}

// SetRegions replaces the enabled regions and writes the file.
func (f *File) SetRegions(regions []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs.Regions = slices.Clone(regions)
	return f.save()
}

// Roles returns the remembered roles.
func (f *File) Roles() []internal.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.prefs.Roles)
}

// RememberRole adds r, or updates the nickname of an already remembered
// role. Credentials are dropped.
func (f *File) RememberRole(r internal.Role) error {
	r.Credentials = nil
	r.Remember = false

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.prefs.Roles {
		if f.prefs.Roles[i].Same(r) {
			f.prefs.Roles[i].Nickname = r.Nickname
			return f.save()
		}
	}
	f.prefs.Roles = append(f.prefs.Roles, r)
	return f.save()
}

// ForgetRole removes the role matching accountID and roleName. It reports
// whether anything was removed.
func (f *File) ForgetRole(accountID, roleName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := internal.Role{AccountID: accountID, RoleName: roleName}
	n := len(f.prefs.Roles)
	f.prefs.Roles = slices.DeleteFunc(f.prefs.Roles, target.Same)
	if len(f.prefs.Roles) == n {
		return false, nil
	}
	return true, f.save()
}

// Watch reloads the file whenever it changes on disk and calls fn with the
// new document. It blocks until ctx is done. The parent directory is
// watched so editors that replace the file are picked up.
func (f *File) Watch(ctx context.Context, fn func(Prefs)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Debugf("watching preferences %s", f.Path)

	target := filepath.Clean(f.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := f.Load(); err != nil {
				log.Warnf("failed to reload preferences: %v", err)
				continue
			}
			fn(f.Prefs())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("preferences watcher error: %v", err)
		}
	}
}
