package index

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hkloudou/lakeops/internal/xsync"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/*.lua
var luaFS embed.FS

var (
	scriptHashes   = make(map[string]string) // filename -> Redis SHA
	scriptHashesMu sync.RWMutex
	flight         = xsync.NewSingleFlight[any]()
)

// loadScriptsToRedis loads every embedded .lua file into Redis
func loadScriptsToRedis(rdb *redis.Client) error {
	_, err := flight.Do("loadScriptsToRedis", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entries, err := luaFS.ReadDir("lua")
		if err != nil {
			return nil, fmt.Errorf("failed to read lua directory: %w", err)
		}

		scriptHashesMu.Lock()
		defer scriptHashesMu.Unlock()

		for _, entry := range entries {
			filename := entry.Name()
			if entry.IsDir() || path.Ext(filename) != ".lua" {
				continue
			}
			// embed.FS paths always use forward slashes
			content, err := luaFS.ReadFile(path.Join("lua", filename))
			if err != nil {
				return nil, fmt.Errorf("failed to read script %s: %w", filename, err)
			}
			sha, err := rdb.ScriptLoad(ctx, string(content)).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to load script %s to Redis: %w", filename, err)
			}
			scriptHashes[filename] = sha
		}
		return nil, nil
	})
	return err
}

func getScriptHash(filename string) string {
	scriptHashesMu.RLock()
	defer scriptHashesMu.RUnlock()
	return scriptHashes[filename]
}

// ensureScriptLoaded returns the script SHA, loading scripts on first use.
// force reloads even when a SHA is cached (e.g. after a Redis restart).
func ensureScriptLoaded(rdb *redis.Client, filename string, force bool) (string, error) {
	if !force {
		if sha := getScriptHash(filename); sha != "" {
			return sha, nil
		}
	}
	if err := loadScriptsToRedis(rdb); err != nil {
		return "", err
	}
	sha := getScriptHash(filename)
	if sha == "" {
		return "", fmt.Errorf("script %s not found", filename)
	}
	return sha, nil
}

// SafeEvalSha runs an embedded script by SHA and reloads once on NOSCRIPT.
func SafeEvalSha(ctx context.Context, rdb *redis.Client, filename string, keys []string, args ...any) *redis.Cmd {
	sha, err := ensureScriptLoaded(rdb, filename, false)
	if err != nil {
		return redis.NewCmd(ctx, err)
	}

	cmd := rdb.EvalSha(ctx, sha, keys, args...)
	if cmd.Err() != nil && strings.Contains(cmd.Err().Error(), "NOSCRIPT") {
		sha, err = ensureScriptLoaded(rdb, filename, true)
		if err != nil {
			return redis.NewCmd(ctx, err)
		}
		cmd = rdb.EvalSha(ctx, sha, keys, args...)
	}
	return cmd
}
