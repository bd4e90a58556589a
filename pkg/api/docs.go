// Package api provides the REST API for querying indexed trades
// @title ctfindex API
// @version 1.0
// @description REST API for querying Polymarket fill events and market metadata indexed by ctfindex
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8000
// @basePath /api/v1
// @schemes http https
package api
