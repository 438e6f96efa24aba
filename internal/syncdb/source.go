package syncdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/logging"
)

// DefaultTimeout bounds a single sync database download.
const DefaultTimeout = 60 * time.Second

// Options configures a Source.
type Options struct {
	// CacheDir holds the downloaded databases, one "sync/<repo>.db" per repo.
	CacheDir string
	// Repos lists repository names in the order their records are returned.
	Repos []string
	// Servers are mirror URL templates; "%s" is replaced by the repo name.
	// They are tried in order until one succeeds.
	Servers []string

	Timeout time.Duration
	Client  *http.Client
	Logger  *logging.Logger
}

// Source is a reconcile.Source backed by pacman sync databases.
type Source struct {
	dir     string
	repos   []string
	servers []string
	client  *http.Client
	log     *logging.Logger
}

// New validates opts and creates a Source. It does not touch the network.
func New(opts Options) (*Source, error) {
	if opts.CacheDir == "" {
		return nil, errors.New("syncdb: cache directory is required")
	}
	if len(opts.Repos) == 0 {
		return nil, errors.New("syncdb: at least one repository is required")
	}
	if len(opts.Servers) == 0 {
		return nil, errors.New("syncdb: at least one server is required")
	}
	for _, repo := range opts.Repos {
		if repo == "" || strings.ContainsAny(repo, `/\`) {
			return nil, fmt.Errorf("syncdb: invalid repository name %q", repo)
		}
	}
	for _, server := range opts.Servers {
		if !strings.Contains(server, "%s") {
			return nil, fmt.Errorf("syncdb: server %q has no %%s placeholder", server)
		}
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Source{
		dir:     filepath.Join(opts.CacheDir, "sync"),
		repos:   append([]string(nil), opts.Repos...),
		servers: append([]string(nil), opts.Servers...),
		client:  client,
		log:     logging.OrNop(opts.Logger),
	}, nil
}

// Path returns the cache file of repo.
func (s *Source) Path(repo string) string {
	return filepath.Join(s.dir, repo+".db")
}

// URL returns the database URL of repo on the mirror described by server.
func URL(server, repo string) string {
	base := strings.ReplaceAll(server, "%s", repo)
	return strings.TrimRight(base, "/") + "/" + repo + ".db"
}

// Refresh brings every cached database up to date. Without force, a cached
// copy that the mirror reports as unmodified is kept.
func (s *Source) Refresh(ctx context.Context, force bool) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return blacklist.FetchError("refresh", fmt.Errorf("create cache dir: %w", err))
	}
	for _, repo := range s.repos {
		if err := s.refreshRepo(ctx, repo, force); err != nil {
			return blacklist.FetchError("refresh "+repo, err)
		}
	}
	return nil
}

func (s *Source) refreshRepo(ctx context.Context, repo string, force bool) error {
	var errs []error
	for _, server := range s.servers {
		u := URL(server, repo)
		updated, err := s.fetch(ctx, u, s.Path(repo), force)
		if err == nil {
			if updated {
				s.log.Info("sync db downloaded", "repo", repo, "url", u)
			} else {
				s.log.Debug("sync db up to date", "repo", repo, "url", u)
			}
			return nil
		}
		s.log.Warn("mirror failed", "repo", repo, "url", u, "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

// fetch downloads u into dst. It reports whether dst was replaced.
func (s *Source) fetch(ctx context.Context, u, dst string, force bool) (bool, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", u, err)
	}

	var since time.Time
	if !force {
		if info, err := os.Stat(dst); err == nil {
			since = info.ModTime()
		}
	}

	switch parsed.Scheme {
	case "http", "https":
		return s.fetchHTTP(ctx, u, dst, since)
	case "file":
		return fetchFile(parsed.Path, dst, since)
	default:
		return false, fmt.Errorf("%s: unsupported scheme %q", u, parsed.Scheme)
	}
}

func (s *Source) fetchHTTP(ctx context.Context, u, dst string, since time.Time) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return false, nil
	case http.StatusOK:
	default:
		return false, fmt.Errorf("GET %s: %s", u, resp.Status)
	}

	var mtime time.Time
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			mtime = t
		}
	}
	if err := writeAtomic(dst, resp.Body, mtime); err != nil {
		return false, fmt.Errorf("GET %s: %w", u, err)
	}
	return true, nil
}

func fetchFile(src, dst string, since time.Time) (bool, error) {
	f, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if !since.IsZero() && !info.ModTime().After(since) {
		return false, nil
	}
	if err := writeAtomic(dst, f, info.ModTime()); err != nil {
		return false, err
	}
	return true, nil
}

// writeAtomic copies r to a temp file next to dst and renames it into place,
// so a failed download leaves the previous copy intact.
func writeAtomic(dst string, r io.Reader, mtime time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".part*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(tmp.Name(), mtime, mtime); err != nil {
			return err
		}
	}
	return os.Rename(tmp.Name(), dst)
}

// Records reads the cached databases of every configured repository.
func (s *Source) Records(ctx context.Context) ([]blacklist.PackageRecord, error) {
	var out []blacklist.PackageRecord
	for _, repo := range s.repos {
		if err := ctx.Err(); err != nil {
			return nil, blacklist.FetchError("read "+repo, err)
		}
		records, err := s.readRepo(repo)
		if err != nil {
			return nil, blacklist.FetchError("read "+repo, err)
		}
		s.log.Debug("sync db parsed", "repo", repo, "packages", len(records))
		out = append(out, records...)
	}
	return out, nil
}

func (s *Source) readRepo(repo string) ([]blacklist.PackageRecord, error) {
	f, err := os.Open(s.Path(repo))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f, repo)
}
