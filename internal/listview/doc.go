// Package listview holds the state of the car list: the loaded collection,
// the loading flag and the search text, plus the delete and navigation
// actions a renderer can trigger.
//
// A View is mounted once per page render (web) or per program run (terminal).
// Each Mount starts from an empty state and issues one fetch; Navigate
// re-fetches while keeping what is already shown. Only the most recent load
// may write its result, and nothing is written after Unmount.
package listview
