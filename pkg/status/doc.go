/*
Package status compares a fresh build against the previous one written to the
same output path.

	+-------------+      +-------------+
	|  previous   |      |   current   |
	|  website.zip|      |  website.zip|
	+------+------+      +------+------+
	       |                    |
	       +------ Diff --------+
	                 |
	          +------+------+
	          |   Report    |
	          | new/mod/del |
	          +-------------+

🎯 Purpose:
- Tells the user what a rebuild changed before they deploy it
- Writes the output atomically so a failed run never leaves half a package

🔄 Flow:
1. Both builds are opened with the archive package
2. Every file entry is hashed with blake3
3. Entries are classified as new, modified, unchanged or deleted

Entries that cannot be read in the current build keep StatusUnknown and carry
the read error.
*/
package status
