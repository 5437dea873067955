package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CloudDJ/cache"
	"CloudDJ/config"
	"CloudDJ/core/audiocache"
	"CloudDJ/core/delivery"
	"CloudDJ/core/netease"
	"CloudDJ/core/resolver"
	"CloudDJ/core/session"
	"CloudDJ/db"
	"CloudDJ/logger"
	"CloudDJ/repository"
	"CloudDJ/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	// 目录客户端
	catalog := netease.NewClient()
	catalog.SetBaseURL(cfg.NeteaseAPIURL)
	catalog.SetTimeout(cfg.HTTPTimeout)
	if cfg.NeteaseCookie != "" {
		if err := catalog.SetCookieString(cfg.NeteaseCookie); err != nil {
			logger.Warn("网易云Cookie无效，VIP解锁不可用", logger.ErrorField(err))
		}
	}

	// 会话存储：配置了Redis用Redis，否则退回内存
	var sessionStore session.Store
	if cfg.RedisHost != "" {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
		}
		defer cache.CloseRedis()
		sessionStore = cache.NewSessionCache(cache.RedisClient)
		logger.Info("会话存储使用Redis",
			logger.String("host", cfg.RedisHost), logger.String("port", cfg.RedisPort))
	} else {
		sessionStore = session.NewMemoryStore()
		logger.Info("未配置Redis，会话存储使用进程内存")
	}

	// 缓存索引：配置了MySQL用MySQL，否则退回内存
	var cacheIndex audiocache.Index
	if cfg.DBHost != "" {
		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseGormDB()
		cacheIndex = repository.NewCacheEntryRepository(db.GormDB)
		logger.Info("缓存索引使用MySQL", logger.String("host", cfg.DBHost))
	} else {
		cacheIndex = audiocache.NewMemoryIndex()
		logger.Info("未配置MySQL，缓存索引使用进程内存")
	}

	// 音频镜像（可选）
	var mirror audiocache.Mirror
	var audioStore *storage.AudioStore
	if cfg.MinioEndpoint != "" {
		var err error
		audioStore, err = storage.NewAudioStore(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
		}
		mirror = audioStore
		logger.Info("音频镜像使用MinIO", logger.String("endpoint", cfg.MinioEndpoint))
	}

	downloadCache, err := audiocache.NewStore(cfg.AudioCacheDir, cacheIndex, mirror)
	if err != nil {
		logger.Fatal("Failed to create audio cache", logger.ErrorField(err))
	}

	sessions := session.NewManager(sessionStore, catalog, cfg.PageSize, cfg.SessionTTL)
	trackResolver := resolver.New(catalog, downloadCache, cfg.DownloadRetries, cfg.DownloadBackoff)
	signer := delivery.NewCardSigner(cfg.CardSignAPIURL, cfg.HTTPTimeout)

	musicHandler := NewMusicHandler(sessions, trackResolver, signer, audioStore, cfg)

	// .env热重载：Cookie变更后无需重启即可生效
	stopWatch, err := config.Watch(".env", func(next *config.Config) {
		if err := catalog.SetCookieString(next.NeteaseCookie); err != nil {
			logger.Warn("热重载Cookie失败", logger.ErrorField(err))
			return
		}
		logger.Info("配置已热重载", logger.Bool("hasCredentials", catalog.HasCredentials()))
	})
	if err != nil {
		logger.Warn("配置热重载不可用", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// 点歌引擎API端点
	router.HandleFunc("/api/music/search", musicHandler.HandleSearch).Methods(http.MethodPost)
	router.HandleFunc("/api/music/page", musicHandler.HandlePage).Methods(http.MethodPost)
	router.HandleFunc("/api/music/select", musicHandler.HandleSelect).Methods(http.MethodPost)
	router.HandleFunc("/api/music/play", musicHandler.HandlePlay).Methods(http.MethodPost)
	router.HandleFunc("/api/health", musicHandler.HandleHealth).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // 文件投递可能携带音频字节
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP服务启动", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务异常退出", logger.ErrorField(err))
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始关闭服务")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务关闭超时", logger.ErrorField(err))
	}
}
