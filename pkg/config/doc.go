// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config loads webbind settings from YAML, HCL or JSON.

	            +-------------+
	            |   Config    |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Select the runtime scripts injected into every archive
- Choose the csv failure policy and worker count
- Add literal replacements on top of the built in public/ to img/ move

📝 Example (YAML):

	assets:
	  dir: ./llweb
	  files:
	    scriptcustom.js: ./site/custom.js
	csv:
	  strict: true
	concurrency: 4
	replacements:
	  - from_text: "http://192.168.0.10/"
	    to_text: "/"
	    file_filter_glob: "*.html"

📝 Example (HCL):

	assets {
	  dir = env.LLWEB_ASSETS
	}
	csv {
	  strict = true
	}
	replacement {
	  from_text        = "http://192.168.0.10/"
	  to_text          = "/"
	  file_filter_glob = "*.html"
	}

The parser is picked by file extension. Unknown fields are rejected by every
format.
*/
package config
