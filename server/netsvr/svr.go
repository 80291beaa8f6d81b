package netsvr

import (
	"net/http"

	"github.com/zintix-labs/lifespan/server/app"
)

// NetSvr 封裝「路由行為 + 服務啟停」的抽象介面。
//   - 只暴露給最外層使用，其他層只需面向 NetRouter。
//   - NetSvr 本身實作了 app.Component，因此可以直接交給 app.App 管理生命週期。
//   - 同時是 http.Handler，測試可直接用 httptest 驅動。
type NetSvr interface {
	NetRouter
	app.Component
	http.Handler
}

// NetRouter 定義純路由行為，讓子模組只操作路由而不持有啟停控制權。
type NetRouter interface {
	// middleware
	Use(middleware func(http.Handler) http.Handler)

	// 註冊路由
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Handle(path string, h http.Handler)

	// 群組路由
	Group(path string, fn func(NetRouter))
}
