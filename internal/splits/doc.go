// Package splits labels metadata rows with the dataset split whose image
// directory lists them.
//
// Assignment concatenates the VAL, TRAIN and TEST subsets in that order and
// rewrites FileName to the split-relative frame path. Rows listed in no split,
// rows listed in several splits, repeated FileName keys and images without a
// metadata row are all reported as diagnostics.
package splits
