package session

import "errors"

// 会话层错误，全部面向用户且可恢复
var (
	// ErrNoResults 搜索无结果，会话仍会创建但禁止选择
	ErrNoResults = errors.New("session: no results")
	// ErrNoActiveSession 该会话没有活跃的搜索
	ErrNoActiveSession = errors.New("session: no active session")
	// ErrSessionExpired 会话已过期，需要重新搜索
	ErrSessionExpired = errors.New("session: session expired")
	// ErrInvalidSelection 选择的编号超出当前页范围
	ErrInvalidSelection = errors.New("session: invalid selection")
	// ErrPageBoundary 已到边界页，翻页为空操作，仅作提示
	ErrPageBoundary = errors.New("session: page boundary reached")
)
