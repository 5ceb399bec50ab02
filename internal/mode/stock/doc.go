/*
Package stock tracks stock prices and notifies subscribers of every price update.

Each tracked symbol is a Stock, which is an observer.Subject of float64 prices. Chart and Alert are the subscribers
shipped with pricewatch. A Feed applies a stream of Ticks to the tracked Stocks.
*/
package stock
