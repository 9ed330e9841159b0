// Package protocolids 定义爬虫使用的协议 ID 常量
//
// 协议 ID 以 "\n" 结尾的行出现在 multistream 协商中，常量本身不含换行。
package protocolids
