// Copyright 2025 UStream Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
包 metrics 提供基于 Prometheus 的流操作指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
注册机制绑定到调用方提供的 Registerer。所有指标按 namespace 隔离，
按 provider 种类分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标。

# 主要能力

  - 读取指标：读取调用总数（按 provider/outcome 分组）、读取字节数、
    单次读取大小分布。
  - 生命周期指标：克隆与释放调用计数、活跃流实例 Gauge。
  - 窗口指标：release 调用计数，按 provider 分组。
*/
package metrics
