package service

import (
	apperrors "github.com/ikkim/must-canteen/internal/errors"
)

// Identity
var (
	ErrInvalidEmailDomain = apperrors.New(apperrors.KindValidation, apperrors.ValidationInvalidEmail, "请使用有效的 MUST 邮箱 (@must.edu.mo)")
	ErrWeakPassword       = apperrors.New(apperrors.KindValidation, apperrors.ValidationWeakPassword, "密码需至少8位，包含字母和数字")
	ErrEmptyDisplayName   = apperrors.New(apperrors.KindValidation, apperrors.ValidationRequired, "昵称不能为空")
	ErrDuplicateAccount   = apperrors.New(apperrors.KindAuth, apperrors.AuthEmailAlreadyExists, "该邮箱已注册")
	ErrInvalidCredentials = apperrors.New(apperrors.KindAuth, apperrors.AuthInvalidCredentials, "账号或密码错误")
	ErrTooManyAttempts    = apperrors.New(apperrors.KindAuth, apperrors.AuthTooManyAttempts, "尝试次数过多，请稍后再试")
	ErrWrongOldPassword   = apperrors.New(apperrors.KindAuth, apperrors.AuthWrongOldPassword, "原密码错误")
	ErrUserNotFound       = apperrors.New(apperrors.KindNotFound, apperrors.UserNotFound, "用户不存在")
)

// Gate
var (
	ErrNotLoggedIn       = apperrors.New(apperrors.KindAuth, apperrors.AuthUnauthorized, "请先登录")
	ErrGuestWriteBlocked = apperrors.New(apperrors.KindAuth, apperrors.AuthGuestReadOnly, "游客模式无法执行此操作，请登录")
)

// Reviews and catalog
var (
	ErrInvalidRating  = apperrors.New(apperrors.KindValidation, apperrors.ValidationInvalidRating, "请为外观、香气、味道分别评分 (1-5)")
	ErrEmptyComment   = apperrors.New(apperrors.KindValidation, apperrors.ValidationRequired, "请填写评价内容")
	ErrEmptyAppend    = apperrors.New(apperrors.KindValidation, apperrors.ValidationRequired, "追评内容不能为空")
	ErrNotReviewOwner = apperrors.New(apperrors.KindAuth, apperrors.AuthzForbidden, "只能管理自己的评价")
	ErrTargetNotFound = apperrors.New(apperrors.KindNotFound, apperrors.TargetNotFound, "评价对象不存在")
	ErrStallNotFound  = apperrors.New(apperrors.KindNotFound, apperrors.ResourceNotFound, "档口不存在")
	ErrDishNotFound   = apperrors.New(apperrors.KindNotFound, apperrors.ResourceNotFound, "菜品不存在")

	ErrUnknownLeaderboard     = apperrors.New(apperrors.KindValidation, apperrors.ValidationInvalidInput, "不支持的排行榜类型")
	ErrReviewSubmitInProgress = apperrors.New(apperrors.KindConflict, apperrors.ReviewSubmitInProgress, "评价正在提交中，请稍候")
)

// Cart and gateway
var (
	ErrCheckoutInProgress = apperrors.New(apperrors.KindConflict, apperrors.CartCheckoutInProgress, "订单正在提交中，请稍候")
	ErrGatewayUnavailable = apperrors.New(apperrors.KindTransientGateway, apperrors.InternalGateway, "网络异常，请稍后重试")
)
