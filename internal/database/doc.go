// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

/*
Package database wraps the gateway store's underlying sql.DB connection
pool: tuning, a background health-check loop, and transaction helpers
with retry-on-transient-error, shared by every GORM dialector the
store package supports (sqlite, postgres).

# Overview

PoolManager wraps a *gorm.DB and its underlying *sql.DB, applying the
configured idle/open connection limits and lifetimes and running a
periodic PingContext in the background so a dropped connection shows
up in logs before it surfaces as a request failure.

# Core types

  - PoolManager: holds the GORM DB and the underlying sql.DB, exposing
    DB(), Ping(), Stats(), Close(), GetStats(), and the transaction
    helpers.
  - PoolConfig: MaxIdleConns, MaxOpenConns, ConnMaxLifetime,
    ConnMaxIdleTime, and the health-check interval.
  - PoolStats: a JSON-friendly snapshot of the pool's current
    utilization, surfaced by the gateway's health endpoint.
  - TransactionFunc: the callback signature run inside a transaction.

# Capabilities

  - Pool tuning via MaxIdleConns/MaxOpenConns/ConnMaxLifetime.
  - A background health-check loop that pings on an interval and logs
    open/idle connection counts through zap.
  - WithTransaction runs a single transaction; WithTransactionRetry
    retries it with backoff on transient errors (deadlocks, Postgres
    serialization failures), used by the store package for writes that
    can race under concurrent callers, such as appending chat turns.
  - GetStats returns a structured snapshot of the pool's current
    connection counts and wait statistics.
*/
package database
