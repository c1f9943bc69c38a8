// Package routing assigns the files a commit changed to the release branches of the packages owning them.
package routing
