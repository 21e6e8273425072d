package sessionstore

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

// RedisStore keeps the active session per owner and the values revealed in it.
// Every key expires with the session it describes.
type RedisStore struct{ rdb *redis.Client }

// Open connects to REDIS_URL and pings it.
func Open(ctx context.Context, redisURL string) (*RedisStore, error) {
    if strings.TrimSpace(redisURL) == "" { return nil, fmt.Errorf("REDIS_URL required for session store") }
    opts, err := ParseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return &RedisStore{rdb: rdb}, nil
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

func keyActive(owner string) string     { return "scratch:active:" + strings.TrimSpace(owner) }
func keyValues(sessionID string) string { return "scratch:values:" + strings.TrimSpace(sessionID) }

func (s *RedisStore) SaveActive(ctx context.Context, owner string, a scratchdto.ActiveSession, ttl time.Duration) error {
    if ttl <= 0 { return nil }
    raw, err := json.Marshal(a)
    if err != nil { return err }
    return s.rdb.Set(ctx, keyActive(owner), raw, ttl).Err()
}

func (s *RedisStore) LoadActive(ctx context.Context, owner string) (*scratchdto.ActiveSession, error) {
    raw, err := s.rdb.Get(ctx, keyActive(owner)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var a scratchdto.ActiveSession
    if err := json.Unmarshal(raw, &a); err != nil { return nil, err }
    return &a, nil
}

func (s *RedisStore) ClearActive(ctx context.Context, owner string) error {
    return s.rdb.Del(ctx, keyActive(owner)).Err()
}

func (s *RedisStore) RememberValue(ctx context.Context, sessionID string, index, value int, ttl time.Duration) error {
    if strings.TrimSpace(sessionID) == "" || ttl <= 0 { return nil }
    key := keyValues(sessionID)
    pipe := s.rdb.TxPipeline()
    pipe.HSet(ctx, key, strconv.Itoa(index), value)
    pipe.Expire(ctx, key, ttl)
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisStore) Values(ctx context.Context, sessionID string) (map[int]int, error) {
    raw, err := s.rdb.HGetAll(ctx, keyValues(sessionID)).Result()
    if err != nil { return nil, err }
    out := make(map[int]int, len(raw))
    for k, v := range raw {
        i, err1 := strconv.Atoi(k)
        n, err2 := strconv.Atoi(v)
        // foreign fields are skipped
        if err1 != nil || err2 != nil { continue }
        out[i] = n
    }
    return out, nil
}

// ParseRedisURL converts redis://[:password@]host:port[/db] into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        n, err := strconv.Atoi(p)
        if err != nil { return nil, fmt.Errorf("invalid redis db %q", p) }
        db = n
    }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
