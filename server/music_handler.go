package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"CloudDJ/config"
	"CloudDJ/core/delivery"
	"CloudDJ/core/netease"
	"CloudDJ/core/resolver"
	"CloudDJ/core/session"
	"CloudDJ/logger"
	"CloudDJ/model"
	"CloudDJ/storage"
)

// MusicHandler 点歌引擎的HTTP处理器
type MusicHandler struct {
	sessions   *session.Manager
	resolver   *resolver.Resolver
	signer     *delivery.CardSigner
	audioStore *storage.AudioStore // 可选
	cfg        *config.Config
}

// NewMusicHandler 创建处理器
func NewMusicHandler(sessions *session.Manager, res *resolver.Resolver, signer *delivery.CardSigner, audioStore *storage.AudioStore, cfg *config.Config) *MusicHandler {
	return &MusicHandler{
		sessions:   sessions,
		resolver:   res,
		signer:     signer,
		audioStore: audioStore,
		cfg:        cfg,
	}
}

// apiResponse 统一响应信封
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeError 把错误分类映射到HTTP状态码
// 所有错误都带人类可读的原因返回给会话层，除翻页边界提示外不吞错误
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoResults),
		errors.Is(err, session.ErrInvalidSelection):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoActiveSession):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionExpired):
		status = http.StatusGone
	case errors.Is(err, resolver.ErrVipUnlock):
		status = http.StatusForbidden
	case errors.Is(err, netease.ErrCatalogUnavailable),
		errors.Is(err, resolver.ErrDownloadFailed):
		status = http.StatusBadGateway
	case errors.Is(err, netease.ErrTrackNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, apiResponse{Success: false, Error: err.Error()})
}

type searchRequest struct {
	ConversationID string `json:"conversationId"`
	Query          string `json:"query"`
}

type pageRequest struct {
	ConversationID string `json:"conversationId"`
	Direction      string `json:"direction"` // next / prev / current
}

type selectRequest struct {
	ConversationID string `json:"conversationId"`
	Index          int    `json:"index"` // 页内1起始编号
}

type playRequest struct {
	ConversationID string `json:"conversationId"`
	Index          int    `json:"index"`
	Mode           string `json:"mode"`                    // card / voice / file
	BackgroundURL  string `json:"backgroundUrl,omitempty"` // 本次请求覆盖默认背景图
}

// pageData 一页结果的响应体
type pageData struct {
	Query        string        `json:"query"`
	ArtistFilter string        `json:"artistFilter,omitempty"`
	Page         int           `json:"page"`
	PageCount    int           `json:"pageCount"`
	Total        int           `json:"total"`
	Boundary     bool          `json:"boundary,omitempty"`
	Tracks       []model.Track `json:"tracks"`
	Listing      string        `json:"listing"`
}

// HandleSearch 处理新搜索，替换该会话此前的会话状态
func (h *MusicHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "请提供conversationId和query"})
		return
	}

	s, err := h.sessions.Search(r.Context(), req.ConversationID, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h.pageData(s, false)})
}

// HandlePage 翻页
func (h *MusicHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "请提供conversationId"})
		return
	}

	direction := session.PageCurrent
	switch req.Direction {
	case "next":
		direction = session.PageNext
	case "prev":
		direction = session.PagePrev
	}

	_, err := h.sessions.Page(r.Context(), req.ConversationID, direction)
	boundary := errors.Is(err, session.ErrPageBoundary)
	if err != nil && !boundary {
		writeError(w, err)
		return
	}

	s, err := h.sessions.Current(r.Context(), req.ConversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h.pageData(s, boundary)})
}

// HandleSelect 按页内编号取出歌曲，不解析资源
func (h *MusicHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "请提供conversationId和index"})
		return
	}

	track, err := h.sessions.Select(r.Context(), req.ConversationID, req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: track})
}

// playData 播放响应体
type playData struct {
	Track      model.Track `json:"track"`
	Mode       string      `json:"mode"`
	StreamURL  string      `json:"streamUrl,omitempty"`
	AssetURL   string      `json:"assetUrl,omitempty"`  // MinIO预签名地址
	AssetPath  string      `json:"assetPath,omitempty"` // 本地缓存路径
	CoverURL   string      `json:"coverUrl,omitempty"`
	SignedCard string      `json:"signedCard,omitempty"` // 签名JSON卡片，空则退回文字+封面+语音
	Background string      `json:"background,omitempty"`
	Message    string      `json:"message"`
}

// HandlePlay 选中并解析歌曲，按投递形式组装结果
func (h *MusicHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "请提供conversationId和index"})
		return
	}

	mode := delivery.Mode(req.Mode)
	if req.Mode == "" {
		mode = delivery.ModeCard
	}
	if !mode.Valid() {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "未知的投递形式: " + req.Mode})
		return
	}

	track, err := h.sessions.Select(r.Context(), req.ConversationID, req.Index)
	if err != nil {
		writeError(w, err)
		return
	}

	resolved, err := h.resolver.Resolve(r.Context(), track, mode.NeedsLocalAsset())
	if err != nil {
		writeError(w, err)
		return
	}

	coverURL := netease.CoverSized(resolved.Track.CoverURL, h.cfg.CoverSize)
	if coverURL == "" {
		coverURL = h.cfg.DefaultCoverURL
	}

	data := playData{
		Track:     resolved.Track,
		Mode:      string(mode),
		StreamURL: resolved.StreamURL,
		AssetPath: resolved.AssetPath,
		CoverURL:  coverURL,
		Message:   "歌曲《" + resolved.Track.Title + "》已就绪",
	}

	background := req.BackgroundURL
	if background == "" {
		background = h.cfg.DefaultBackgroundURL
	}
	data.Background = background

	// 卡片形式：请求签名卡片，失败时调用方走文字+封面+语音兜底
	if mode == delivery.ModeCard {
		streamRef := resolved.StreamURL
		if streamRef == "" {
			streamRef = netease.OuterPlayURL(resolved.Track.ID)
		}
		payload := delivery.BuildCardPayload(resolved.Track, streamRef, coverURL)
		data.SignedCard = h.signer.Sign(r.Context(), payload)
	}

	// 本地资源有MinIO镜像时换成限时外链，投递方好取字节
	if resolved.ObjectName != "" && h.audioStore != nil {
		if u, err := h.audioStore.PresignedAudioURL(r.Context(), resolved.ObjectName, time.Hour); err == nil {
			data.AssetURL = u
		} else {
			logger.Warn("[HandlePlay] 生成预签名地址失败", logger.ErrorField(err))
		}
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

// HandleHealth 健康检查
func (h *MusicHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]string{"status": "ok"}})
}

// pageData 组装一页结果
func (h *MusicHandler) pageData(s *model.SearchSession, boundary bool) pageData {
	page := s.PageSlice()
	return pageData{
		Query:        s.Query,
		ArtistFilter: s.ArtistFilter,
		Page:         s.CurrentPage,
		PageCount:    s.PageCount(),
		Total:        len(s.Results),
		Boundary:     boundary,
		Tracks:       page,
		Listing:      delivery.RenderTrackList(s.Query, page, s.CurrentPage, s.PageCount()),
	}
}
