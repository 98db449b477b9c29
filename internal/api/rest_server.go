package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxelworld/internal/app"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/middleware"
	"github.com/annel0/voxelworld/internal/physics"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WorldService — операции сессии, доступные через REST
type WorldService interface {
	GetBlock(x, y, z int) (block.BlockID, bool)
	AddBlock(x, y, z int, id block.BlockID) bool
	RemoveBlock(x, y, z int) bool
	Chunks() []app.ChunkInfo
	Player() app.PlayerState
	Contacts() []physics.Contact
	SetInput(right, forward, yaw float64)
	Jump() bool
	Params() world.Params
	SetParams(ctx context.Context, params world.Params) error
	Save(ctx context.Context) (storage.SaveMeta, error)
	Load(ctx context.Context) (storage.SaveMeta, error)
	Reset(ctx context.Context)
}

// RestServer представляет REST API сервер
type RestServer struct {
	router     *gin.Engine
	world      WorldService
	port       string
	stats      *statsCollector
	httpServer *http.Server
	log        *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string       // адрес для запуска сервера, например ":8088"
	World    WorldService // сессия мира
	Registry *prometheus.Registry
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	server := &RestServer{
		router: router,
		world:  config.World,
		port:   config.Port,
		stats:  newStatsCollector(),
		log:    logging.GetAPILogger(),
	}

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger(server.log).Handler())

	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("voxel_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	server.setupRoutes()
	return server
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/catalog", rs.handleCatalog)

		blocks := api.Group("/blocks/:x/:y/:z")
		blocks.Use(parseCoords())
		{
			blocks.GET("", rs.handleGetBlock)
			blocks.PUT("", rs.handlePutBlock)
			blocks.DELETE("", rs.handleDeleteBlock)
		}

		api.GET("/chunks", rs.handleChunks)
		api.GET("/player", rs.handlePlayer)
		api.POST("/player/input", rs.handlePlayerInput)
		api.GET("/params", rs.handleGetParams)
		api.PUT("/params", rs.handlePutParams)

		api.POST("/save", rs.handleSave)
		api.POST("/load", rs.handleLoad)
		api.POST("/reset", rs.handleReset)

		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockRequest — тело PUT /api/blocks/:x/:y/:z
type BlockRequest struct {
	Block *block.BlockID `json:"block" binding:"required"`
}

// InputRequest — намерение движения игрока
type InputRequest struct {
	Right   float64 `json:"right"`
	Forward float64 `json:"forward"`
	Yaw     float64 `json:"yaw"`
	Jump    bool    `json:"jump"`
}

// BlockResponse — ответ с типом блока
type BlockResponse struct {
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Z     int           `json:"z"`
	Block block.BlockID `json:"block"`
	Name  string        `json:"name"`
}

type coords struct{ x, y, z int }

// parseCoords разбирает :x/:y/:z и кладёт их в контекст
func parseCoords() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p coords
		var err error
		if p.x, err = strconv.Atoi(c.Param("x")); err == nil {
			if p.y, err = strconv.Atoi(c.Param("y")); err == nil {
				p.z, err = strconv.Atoi(c.Param("z"))
			}
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Координаты должны быть целыми числами",
			})
			return
		}
		c.Set("coords", p)
		c.Next()
	}
}

func coordsFrom(c *gin.Context) coords {
	return c.MustGet("coords").(coords)
}

func blockResponse(p coords, id block.BlockID) BlockResponse {
	return BlockResponse{X: p.x, Y: p.y, Z: p.z, Block: id, Name: id.String()}
}

// handleGetBlock возвращает тип блока; 404 — чанк не загружен или координата вне мира
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	p := coordsFrom(c)
	id, ok := rs.world.GetBlock(p.x, p.y, p.z)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Блок недоступен: чанк не загружен",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: blockResponse(p, id)})
}

// handlePutBlock ставит блок
func (rs *RestServer) handlePutBlock(c *gin.Context) {
	p := coordsFrom(c)

	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}
	id := *req.Block
	if id.IsEmpty() || !block.IsValidBlockID(id) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неизвестный тип блока",
		})
		return
	}

	if !rs.world.AddBlock(p.x, p.y, p.z, id) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Правка отклонена: ячейка занята, бедрок или чанк не загружен",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: blockResponse(p, id)})
}

// handleDeleteBlock удаляет блок
func (rs *RestServer) handleDeleteBlock(c *gin.Context) {
	p := coordsFrom(c)
	if !rs.world.RemoveBlock(p.x, p.y, p.z) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Правка отклонена: пустая ячейка, бедрок или чанк не загружен",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок удалён",
		Data:    blockResponse(p, block.EmptyBlockID),
	})
}

// handleCatalog возвращает список типов блоков
func (rs *RestServer) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: block.Solid()})
}

func (rs *RestServer) handleChunks(c *gin.Context) {
	chunks := rs.world.Chunks()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data: gin.H{
			"chunks": chunks,
			"total":  len(chunks),
		},
	})
}

func (rs *RestServer) handlePlayer(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data: gin.H{
			"player":   rs.world.Player(),
			"contacts": rs.world.Contacts(),
		},
	})
}

func (rs *RestServer) handlePlayerInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	rs.world.SetInput(req.Right, req.Forward, req.Yaw)
	jumped := false
	if req.Jump {
		jumped = rs.world.Jump()
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: gin.H{"jumped": jumped}})
}

func (rs *RestServer) handleGetParams(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: rs.world.Params()})
}

// handlePutParams меняет параметры генерации и перегенерирует мир
func (rs *RestServer) handlePutParams(c *gin.Context) {
	var params world.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	if err := rs.world.SetParams(c.Request.Context(), params); err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир перегенерирован", Data: rs.world.Params()})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	meta, err := rs.world.Save(c.Request.Context())
	if err != nil {
		rs.log.Error("Ошибка сохранения мира: %v", err)
		c.JSON(storageStatus(err), GenericResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сохранён", Data: meta})
}

func (rs *RestServer) handleLoad(c *gin.Context) {
	meta, err := rs.world.Load(c.Request.Context())
	if err != nil {
		rs.log.Warn("Загрузка мира не удалась: %v", err)
		c.JSON(storageStatus(err), GenericResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир загружен", Data: meta})
}

func (rs *RestServer) handleReset(c *gin.Context) {
	rs.world.Reset(c.Request.Context())
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сброшен"})
}

// storageStatus переводит ошибку сохранения в HTTP-статус
func storageStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrNoStorage):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNoSave):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrCorruptSave):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleStats возвращает статистику процесса и мира
func (rs *RestServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    rs.stats.collect(rs.world.Chunks()),
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.log.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
