// Copyright 2025 UStream Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
包 ustream 提供异构、不可变、引用计数的字节流抽象。

# 概述

ustream 解决的核心问题是：在内存受限的系统中，生产者需要暴露任意大、
可能不连续或惰性物化的字节内容（RAM、文件、网络、数据库、实时生成），
而消费者只希望通过一个统一的迭代式读取接口顺序消费，无需关心存储介质。
内容一经创建即不可变；读取总是把字节拷贝到消费者自己的本地缓冲区，
绝不暴露内部指针。

# 位置模型

每个流实例维护一个滑动窗口，把内容切分为三个连续段：

  - 已释放（released）：通过 Release 确认不再需要的前缀，不可再读；
  - 待定（pending）：从首个有效位置到游标之间，可通过 SetPosition
    或 Reset 回退重读；
  - 未来（future）：游标之后的内容，下一次 Read 从这里取字节。

消费者可见的是逻辑位置；provider 内部使用 inner 位置，二者通过每个
实例独立的 offsetDiff 映射。Clone 可以在任意逻辑偏移处重新落位。

# 生命周期

内容由共享的控制块承载，控制块持有原子引用计数与两个释放回调
（先释放 payload，再释放控制块本身）。工厂创建首个引用，Clone 增加
引用，Dispose 减少引用；计数归零时回调各执行一次。回调为 nil 表示
内存静态所有，不做释放。

# 内置 provider

  - flat：连续内存区域（NewFlat / FromBytes / FromConst）；
  - multi：把两个子流拼成一个无缝流（Concat），O(1) 且零拷贝；
  - readerat：任意 io.ReaderAt 介质（FromReaderAt），文件、网络、
    数据库后端都经由它接入；
  - base64：数据转换 provider，按源字节推进游标；
  - throttle / secure / instrument：限速、令牌门控与指标包装器。

# 并发规则

单个实例不允许跨 goroutine 并发使用；跨 goroutine 共享内容请使用
Clone，让每个 goroutine 持有自己的游标。控制块可被任意多个实例在
任意多个 goroutine 上引用，引用计数原子更新，payload 字节不可变，
并发读取无需加锁。
*/
package ustream
