// Package handler 按业务划分的 HTTP Handler，具体实现位于 auth、payment、refund 子包。
// swag init 以本目录为扫描入口。
package handler
